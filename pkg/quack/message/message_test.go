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

package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitAndDrain(t *testing.T) {
	b := NewBus(4)
	b.Emit(Message{Kind: KindBundleLoading, BundleName: "demo"})
	b.Emit(Message{Kind: KindBundleLoaded, BundleName: "demo"})
	b.Close()

	var got []Kind
	for m := range b.Messages() {
		got = append(got, m.Kind)
	}
	assert.Equal(t, []Kind{KindBundleLoading, KindBundleLoaded}, got)
	assert.Equal(t, 0, b.Dropped())
}

func TestEmitDropsWhenFull(t *testing.T) {
	b := NewBus(1)
	b.Emit(Message{Kind: KindBundleLoading})
	b.Emit(Message{Kind: KindBundleLoaded})
	assert.Equal(t, 1, b.Dropped())
}

func TestNilBusIsNoOp(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() {
		b.Emit(Message{Kind: KindBundleLoading})
		b.Close()
	})
	assert.Equal(t, 0, b.Dropped())
	assert.Nil(t, b.Messages())
}
