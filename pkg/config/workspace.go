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

package config

import "github.com/quacktool/quack/pkg/quack/quackerr"

// Workspace is the recognized workspace.{name,version,bundles[],
// global_settings,output} option group (§6): multi-bundle mode.
type Workspace struct {
	Name           string
	Version        string
	Bundles        []*Bundle
	GlobalSettings *Bundle
	Output         string
}

// NewWorkspace returns an empty Workspace; Bundles is populated by the
// caller (one entry per bundle named in the workspace manifest).
func NewWorkspace() *Workspace {
	return &Workspace{GlobalSettings: NewBundle()}
}

// Validate checks the workspace itself and every bundle it carries,
// after first inheriting Format, Compression, Plugins and Ignore from
// GlobalSettings wherever a per-bundle entry left them at their zero
// value.
func (w *Workspace) Validate() error {
	if w.Name == "" {
		return quackerr.Validation("workspace.name is required")
	}
	if w.Output == "" {
		return quackerr.Validation("workspace.output is required")
	}
	if len(w.Bundles) == 0 {
		return quackerr.Validation("workspace.bundles must name at least one bundle")
	}
	seen := make(map[string]struct{}, len(w.Bundles))
	for _, b := range w.Bundles {
		w.applyGlobalSettings(b)
		if _, dup := seen[b.Source]; dup {
			return quackerr.Validationf("duplicate workspace bundle source %q", b.Source)
		}
		seen[b.Source] = struct{}{}
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// applyGlobalSettings fills in Format, Compression, Plugins and Ignore
// from the workspace's GlobalSettings where the per-bundle entry left
// them at their zero value ("entry overrides group default"). Other
// Bundle fields (Source, Output, DefaultLocale, Encryption, Versioning)
// are not inherited.
func (w *Workspace) applyGlobalSettings(b *Bundle) {
	if w.GlobalSettings == nil {
		return
	}
	if b.Format == "" {
		b.Format = w.GlobalSettings.Format
	}
	if b.Compression == (Compression{}) {
		b.Compression = w.GlobalSettings.Compression
	}
	if len(b.Plugins) == 0 {
		b.Plugins = w.GlobalSettings.Plugins
	}
	if len(b.Ignore) == 0 {
		b.Ignore = w.GlobalSettings.Ignore
	}
}
