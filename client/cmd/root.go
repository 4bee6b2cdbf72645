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
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sdcio/netconf-client/pkg/config"
	"github.com/sdcio/netconf-client/pkg/server"
)

var configFile string
var targetName string
var address string
var port int
var username string
var password string
var commitDatastore string
var timeout time.Duration
var debug bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ncctl",
	Short: "NETCONF transaction client",
	PersistentPreRun: func(*cobra.Command, []string) {
		if debug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path, the targets section is used")
	rootCmd.PersistentFlags().StringVarP(&targetName, "target", "n", "", "target name in the config file")
	rootCmd.PersistentFlags().StringVarP(&address, "address", "a", "", "target address, used without a config file")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 830, "target NETCONF port")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "target username")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "", "", "target password")
	rootCmd.PersistentFlags().StringVarP(&commitDatastore, "commit-datastore", "", config.CommitDatastoreCandidate, "one of candidate, running, candidate-running")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "", 30*time.Second, "RPC timeout")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "set log level to DEBUG")
}

// targetConfig returns the target selected by the flags.
func targetConfig() (*config.TargetConfig, error) {
	if configFile != "" {
		cfg, err := config.New(configFile)
		if err != nil {
			return nil, err
		}
		if targetName == "" && len(cfg.Targets) == 1 {
			return cfg.Targets[0], nil
		}
		tc := cfg.Target(targetName)
		if tc == nil {
			return nil, fmt.Errorf("target %q not found in %s", targetName, configFile)
		}
		return tc, nil
	}
	if address == "" {
		return nil, fmt.Errorf("either --config or --address must be set")
	}
	name := targetName
	if name == "" {
		name = address
	}
	tc := &config.TargetConfig{
		Name: name,
		SBI: &config.SBI{
			Address: address,
			Port:    port,
			Timeout: timeout,
			Credentials: &config.Creds{
				Username: username,
				Password: password,
			},
			NetconfOptions: &config.SBINetconfOptions{
				CommitDatastore: commitDatastore,
			},
		},
	}
	return tc, tc.ValidateSetDefaults()
}

func connectTarget(ctx context.Context) (*server.Target, error) {
	tc, err := targetConfig()
	if err != nil {
		return nil, err
	}
	t := server.NewTarget(tc, nil)
	if err := t.Open(ctx); err != nil {
		return nil, err
	}
	return t, nil
}
