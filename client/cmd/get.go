// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/tx"
	"github.com/sdcio/netconf-client/pkg/utils"
)

var paths []string
var datastore string

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:          "get",
	Short:        "read data through read transactions",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := ops.ParseDatastore(datastore)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			paths = []string{"/"}
		}
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		t, err := connectTarget(ctx)
		if err != nil {
			return err
		}
		defer t.Stop()
		s, err := t.Session()
		if err != nil {
			return err
		}

		results, err := readAll(ctx, s, ds, paths)
		if err != nil {
			return err
		}
		for i, e := range results {
			fmt.Printf("%s:\n", paths[i])
			if e == nil {
				fmt.Println("  not found")
				continue
			}
			doc := etree.NewDocument()
			doc.SetRoot(e)
			doc.Indent(2)
			out, err := doc.WriteToString()
			if err != nil {
				return err
			}
			fmt.Print(out)
		}
		return nil
	},
}

// readAll reads all paths concurrently, one read transaction each. The
// results are in the order of paths.
func readAll(ctx context.Context, s *tx.Session, ds ops.Datastore, paths []string) ([]*etree.Element, error) {
	results := make([]*etree.Element, len(paths))
	eg, ectx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		eg.Go(func() error {
			gp, err := utils.ParsePath(p)
			if err != nil {
				return err
			}
			e, err := s.NewReadTransaction().Read(ectx, ds, gp).Wait(ectx)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			results[i] = e
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringArrayVarP(&paths, "path", "", []string{}, "get path(s)")
	getCmd.Flags().StringVarP(&datastore, "datastore", "", "configuration", "datastore, one of: configuration, operational")
}
