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
	"errors"
	"fmt"
	"os"

	"github.com/beevik/etree"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/sdcio/netconf-client/pkg/future"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/tx"
	"github.com/sdcio/netconf-client/pkg/utils"
)

var editFile string

// editFileContent is the format of the --file of apply. Each transaction is
// one write transaction of the chain.
type editFileContent struct {
	Transactions []*editBatch `yaml:"transactions,omitempty"`
}

type editBatch struct {
	Edits []*editDefinition `yaml:"edits,omitempty"`
}

type editDefinition struct {
	Operation string `yaml:"operation,omitempty"`
	Path      string `yaml:"path,omitempty"`
	// XML of the node at path, not used by delete
	Payload string `yaml:"payload,omitempty"`
}

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:          "apply",
	Short:        "apply batches of edits as a transaction chain",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := os.ReadFile(editFile)
		if err != nil {
			return err
		}
		batches, err := parseBatches(b)
		if err != nil {
			return err
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
		results, err := applyBatches(ctx, s, batches)
		for i, r := range results {
			fmt.Printf("transaction %d %s: %s\n", i+1, r.id, r.state)
		}
		return err
	},
}

// parseBatches converts the edit file into the edits of each transaction.
func parseBatches(b []byte) ([][]tx.EditEntry, error) {
	content := new(editFileContent)
	if err := yaml.UnmarshalStrict(b, content); err != nil {
		return nil, err
	}
	if len(content.Transactions) == 0 {
		return nil, errors.New("no transactions defined")
	}
	batches := make([][]tx.EditEntry, 0, len(content.Transactions))
	for i, tb := range content.Transactions {
		if tb == nil || len(tb.Edits) == 0 {
			return nil, fmt.Errorf("transaction %d: no edits", i+1)
		}
		entries := make([]tx.EditEntry, 0, len(tb.Edits))
		for j, ed := range tb.Edits {
			e, err := ed.toEntry()
			if err != nil {
				return nil, fmt.Errorf("transaction %d edit %d: %w", i+1, j+1, err)
			}
			entries = append(entries, e)
		}
		batches = append(batches, entries)
	}
	return batches, nil
}

func (ed *editDefinition) toEntry() (tx.EditEntry, error) {
	op, err := ops.ParseEditOperation(ed.Operation)
	if err != nil {
		return tx.EditEntry{}, err
	}
	p, err := utils.ParsePath(ed.Path)
	if err != nil {
		return tx.EditEntry{}, err
	}
	e := tx.EditEntry{Path: p, Operation: op}
	if op == ops.Delete {
		return e, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(ed.Payload); err != nil {
		return tx.EditEntry{}, fmt.Errorf("invalid payload: %w", err)
	}
	if doc.Root() == nil {
		return tx.EditEntry{}, fmt.Errorf("%s requires a payload", op)
	}
	// drop the indentation of multi-line payloads
	doc.Indent(etree.NoIndent)
	e.Payload = doc.Root()
	return e, nil
}

type txResult struct {
	id    tx.TransactionID
	state tx.State
}

// chainOutcome is told once how the chain ended.
type chainOutcome struct {
	done  chan struct{}
	tx    tx.Transaction
	cause error
}

func (c *chainOutcome) OnTransactionChainFailed(_ *tx.TransactionChain, t tx.Transaction, cause error) {
	c.tx = t
	c.cause = cause
	close(c.done)
}

func (c *chainOutcome) OnTransactionChainSuccessful(*tx.TransactionChain) {
	close(c.done)
}

// applyBatches creates one write transaction per batch on a transaction
// chain. A transaction is only created once the previous one succeeded.
// It waits until the chain is done.
func applyBatches(ctx context.Context, s *tx.Session, batches [][]tx.EditEntry) ([]*txResult, error) {
	outcome := &chainOutcome{done: make(chan struct{})}
	chain := s.NewTransactionChain(outcome)

	var submitted []*tx.WriteTransaction
	var futures []*future.Future[tx.State]
	var createErr error
	for i, batch := range batches {
		created, err := chain.NewWriteTransaction(ctx)
		if err != nil {
			createErr = fmt.Errorf("transaction %d: %w", i+1, err)
			break
		}
		w, err := created.Wait(ctx)
		if err != nil {
			createErr = fmt.Errorf("transaction %d: %w", i+1, err)
			break
		}
		if err := queue(ctx, w, batch); err != nil {
			if cerr := w.Cancel(); cerr != nil {
				log.Warnf("failed to cancel transaction %s: %v", w.ID(), cerr)
			}
			createErr = fmt.Errorf("transaction %d: %w", i+1, err)
			break
		}
		f, err := w.Commit(ctx)
		if err != nil {
			createErr = fmt.Errorf("transaction %d: %w", i+1, err)
			break
		}
		log.Debugf("transaction %d (%s) submitted", i+1, w.ID())
		submitted = append(submitted, w)
		futures = append(futures, f)
		// the next transaction locks the same datastores
		if st, _ := f.Wait(ctx); st != tx.StateSuccessful {
			break
		}
	}
	chain.Close()

	select {
	case <-outcome.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	results := make([]*txResult, 0, len(submitted))
	for i, w := range submitted {
		st, _ := futures[i].Wait(ctx)
		results = append(results, &txResult{id: w.ID(), state: st})
	}
	if outcome.cause != nil {
		return results, fmt.Errorf("transaction %s failed: %w", outcome.tx.ID(), outcome.cause)
	}
	return results, createErr
}

func queue(ctx context.Context, w *tx.WriteTransaction, batch []tx.EditEntry) error {
	for _, e := range batch {
		var err error
		switch e.Operation {
		case ops.Merge:
			err = w.Merge(ctx, ops.Configuration, e.Path, e.Payload)
		case ops.Put:
			err = w.Put(ctx, ops.Configuration, e.Path, e.Payload)
		case ops.Delete:
			err = w.Delete(ctx, ops.Configuration, e.Path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVarP(&editFile, "file", "f", "", "edit file")
	applyCmd.MarkFlagRequired("file")
}
