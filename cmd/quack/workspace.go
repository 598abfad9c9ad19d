/*
 *     Copyright 2026 The Quack Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quacktool/quack/pkg/config"
	"github.com/quacktool/quack/pkg/quack/buildlog"
	"github.com/quacktool/quack/pkg/quack/workspace"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Scaffold, build, and inspect a multi-bundle workspace",
}

var workspaceInitCmd = &cobra.Command{
	Use:   "init <workspace-file>",
	Short: "Write a skeleton workspace definition file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspaceInit(args[0])
	},
}

var workspaceBundleCmd = &cobra.Command{
	Use:   "bundle <workspace-file>",
	Short: "Build every bundle a workspace definition names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspaceBundle(context.Background(), args[0])
	},
}

var workspaceStatusCmd = &cobra.Command{
	Use:   "status <output-root>",
	Short: "Print the current version and latest build of every bundle tracked in the workspace index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspaceStatus(args[0])
	},
}

var workspacePatchCmd = &cobra.Command{
	Use:   "patch <workspace-file>",
	Short: "Create a patch for every bundle whose current version changed since its previous recorded build",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspacePatch(context.Background(), args[0])
	},
}

var workspacePatchesCmd = &cobra.Command{
	Use:   "patches <output-root> <bundle-name>",
	Short: "Print the build history a bundle has recorded, the candidate set for patch create",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		patchBundleDir = args[0]
		return runPatchList(args[1])
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceInitCmd, workspaceBundleCmd, workspacePatchCmd, workspaceStatusCmd, workspacePatchesCmd)
}

// workspaceFile is the on-disk JSON shape of a workspace definition: a
// thin, explicitly-tagged mirror of config.Workspace, kept separate from
// it so the file format does not change shape with the in-memory struct.
type workspaceFile struct {
	Name           string               `json:"name"`
	Version        string               `json:"version"`
	Output         string               `json:"output"`
	GlobalSettings *workspaceFileBundle `json:"global_settings,omitempty"`
	Bundles        []workspaceFileBundle `json:"bundles"`
}

type workspaceFileBundle struct {
	Name          string   `json:"name"`
	Source        string   `json:"source"`
	Output        string   `json:"output"`
	Format        string   `json:"format,omitempty"`
	DefaultLocale string   `json:"default_locale,omitempty"`
	Ignore        []string `json:"ignore,omitempty"`
}

func (f *workspaceFile) toConfig() *config.Workspace {
	ws := config.NewWorkspace()
	ws.Name = f.Name
	ws.Version = f.Version
	ws.Output = f.Output
	if f.GlobalSettings != nil {
		ws.GlobalSettings = f.GlobalSettings.toBundle()
	}
	for _, b := range f.Bundles {
		ws.Bundles = append(ws.Bundles, b.toBundle())
	}
	return ws
}

func (b *workspaceFileBundle) toBundle() *config.Bundle {
	bc := config.NewBundle()
	bc.Source = b.Source
	bc.Output = b.Output
	bc.Format = b.Format
	bc.DefaultLocale = b.DefaultLocale
	bc.Ignore = b.Ignore
	return bc
}

func loadWorkspaceFile(path string) (*workspaceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workspace file %s: %w", path, err)
	}
	var wf workspaceFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing workspace file %s: %w", path, err)
	}
	return &wf, nil
}

func runWorkspaceInit(path string) error {
	skeleton := workspaceFile{
		Name:    "example-workspace",
		Version: "0.1.0",
		Output:  "dist",
		Bundles: []workspaceFileBundle{
			{Name: "main-story", Source: "assets/main-story", Output: "dist/main-story.qpk"},
		},
	}
	data, err := json.MarshalIndent(skeleton, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing workspace file %s: %w", path, err)
	}
	fmt.Printf("wrote workspace definition to %s\n", path)
	return nil
}

func runWorkspaceBundle(ctx context.Context, path string) error {
	wf, err := loadWorkspaceFile(path)
	if err != nil {
		return err
	}
	ws := wf.toConfig()
	if err := ws.Validate(); err != nil {
		return err
	}

	for i, bc := range ws.Bundles {
		name := wf.Bundles[i].Name
		outputPath, buildCtx, version, result, err := buildBundle(ctx, name, bc)
		if err != nil {
			return fmt.Errorf("bundle %q: %w", name, err)
		}
		fmt.Printf("built %s (version=%s build_id=%s files=%d merkle_root=%s)\n",
			outputPath, version, buildCtx.BuildID, result.Manifest.Totals.Files, result.Manifest.MerkleRoot)
	}
	fmt.Printf("built %d bundle(s) for workspace %q\n", len(ws.Bundles), ws.Name)
	return nil
}

func runWorkspacePatch(ctx context.Context, path string) error {
	wf, err := loadWorkspaceFile(path)
	if err != nil {
		return err
	}
	ws := wf.toConfig()
	if err := ws.Validate(); err != nil {
		return err
	}

	bundleDir := ws.Output
	created := 0
	for i, bc := range ws.Bundles {
		name := wf.Bundles[i].Name

		store := buildlog.NewStore(bundleDir)
		logs, err := store.List(name)
		if err != nil {
			return fmt.Errorf("bundle %q: %w", name, err)
		}
		if len(logs) < 2 {
			continue
		}
		sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.Before(logs[j].CreatedAt) })
		from, to := logs[len(logs)-2], logs[len(logs)-1]
		if from.BundleVersion == to.BundleVersion {
			continue
		}

		pc := config.NewPatch()
		pc.BundleName = name
		pc.FromVersion = from.BundleVersion
		pc.ToVersion = to.BundleVersion
		pc.Output = filepath.Join(bundleDir, ".quack", "patches", name, fmt.Sprintf("%s-to-%s.qpk", from.BundleVersion, to.BundleVersion))
		pc.Compression = bc.Compression
		pc.Encryption = bc.Encryption
		if err := pc.Validate(); err != nil {
			return fmt.Errorf("bundle %q: %w", name, err)
		}

		result, d, err := createPatch(ctx, bundleDir, pc)
		if err != nil {
			return fmt.Errorf("bundle %q: %w", name, err)
		}
		fmt.Printf("created patch %s (%d change(s), %s -> %s, merkle_root=%s)\n",
			pc.Output, d.ChangeCount(), pc.FromVersion, pc.ToVersion, result.Manifest.MerkleRoot)
		created++
	}
	fmt.Printf("created %d patch(es)\n", created)
	return nil
}

func runWorkspaceStatus(outputRoot string) error {
	store, err := workspace.NewStore(outputRoot)
	if err != nil {
		return err
	}
	idx, err := store.Load()
	if err != nil {
		return err
	}
	if idx.Name != "" {
		fmt.Printf("workspace %s (schema version %s)\n", idx.Name, idx.Version)
	}
	for name, state := range idx.Bundles {
		fmt.Printf("%-20s current=%-10s build_id=%-36s updated=%s\n",
			name, state.CurrentVersion, state.LatestBuildID, state.UpdatedAt)
	}
	return nil
}
