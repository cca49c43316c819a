/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/suparena/storagekit/blobs"
)

func blobCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Upload, download and locate blobs",
	}

	var (
		name        string
		contentType string
		unique      bool
	)
	upload := &cobra.Command{
		Use:   "upload <container> <file>",
		Short: "Upload a file, creating the container if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			blob := name
			if blob == "" {
				blob = filepath.Base(args[1])
			}
			if unique {
				blob = blobs.GenerateUniqueFilename(blob)
			}
			ct := contentType
			if ct == "" {
				ct = mime.TypeByExtension(filepath.Ext(args[1]))
			}

			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			stored, err := client.Blobs.Upload(ctx, args[0], blob, f, ct)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stored)
			return nil
		},
	}
	upload.Flags().StringVar(&name, "name", "", "blob name, defaults to the file name")
	upload.Flags().StringVar(&contentType, "content-type", "", "content type, defaults to a guess from the extension")
	upload.Flags().BoolVar(&unique, "unique", false, "append a unique suffix to the blob name")
	cmd.AddCommand(upload)

	var output string
	download := &cobra.Command{
		Use:   "download <container> <blob>",
		Short: "Download a blob to a file or stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			rc, err := client.Blobs.Download(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			defer rc.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			_, err = io.Copy(w, rc)
			return err
		},
	}
	download.Flags().StringVarP(&output, "output", "o", "-", "destination file, - for stdout")
	cmd.AddCommand(download)

	cmd.AddCommand(&cobra.Command{
		Use:   "url <container> <blob>",
		Short: "Print the URL of an existing blob",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			url, err := client.Blobs.BlobURL(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	})

	return cmd
}
