// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/consensys/semagen/pkg/descfile"
	"github.com/consensys/semagen/pkg/emit"
	"github.com/consensys/semagen/pkg/target"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected boolean flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// readTargetFile parses a target description document from the given
// filename, or exits the process on any error. The second return is the
// explicit-override map ready for emit.Run, resolved from the document's
// "semantics" array (the Semantics marker class, §4.4 step 3).
func readTargetFile(filename string) (*target.Context, map[uint][]*target.Instruction) {
	f, err := os.Open(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	defer f.Close()

	ctx, markers, err := descfile.Decode(f)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return ctx, emit.ExplicitOverrides(ctx, markers)
}
