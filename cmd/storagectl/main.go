/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command storagectl inspects and edits tables, queues, blobs and topics
// through the storagekit helpers.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
