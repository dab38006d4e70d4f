// Copyright 2025 The relayd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// doubler 是一个测试用 filter:每个输入字节立刻 Pass 并产出该字节两次
// 用于验证 SerialGroup 在某一级改变字节粒度时仍能正确级联。
type doubler struct {
	Base
}

func (d *doubler) Write(c byte) (State, error) {
	if err := d.CheckWrite(c); err != nil {
		return d.State(), err
	}
	if err := d.Append([]byte{c}); err != nil {
		return d.State(), err
	}
	d.SetState(Pass)
	return Pass, nil
}

func (d *doubler) Read() ([]byte, error) {
	if err := d.Base.Read(); err != nil {
		return nil, err
	}
	return d.Buffered(), nil
}

func TestNullFilterLifecycle(t *testing.T) {
	n := NewNull()
	require.Equal(t, Empty, n.State())

	st, err := n.Write('a')
	require.NoError(t, err)
	require.Equal(t, Pass, st)

	_, err = n.Write('b')
	require.ErrorIs(t, err, ErrPassNotRead)

	out, err := n.Read()
	require.NoError(t, err)
	require.Equal(t, []byte("a"), out)

	_, err = n.Write('b')
	require.ErrorIs(t, err, ErrMustReset)

	n.Reset()
	require.Equal(t, Empty, n.State())
}

func TestReadBeforeWriteFails(t *testing.T) {
	n := NewNull()
	_, err := n.Read()
	require.ErrorIs(t, err, ErrEmptyRead)
}

func TestSerialGroupCascadesThroughStages(t *testing.T) {
	g := NewSerialGroup(&doubler{}, NewNull())

	st, err := g.Write('x')
	require.NoError(t, err)
	require.Equal(t, Pass, st)

	out, err := g.Read()
	require.NoError(t, err)
	require.Equal(t, []byte("xx"), out, "the doubler stage must fan its single input byte out to two")
}

func TestSerialGroupResetPropagatesToChildren(t *testing.T) {
	d := &doubler{}
	g := NewSerialGroup(d, NewNull())

	_, err := g.Write('x')
	require.NoError(t, err)
	_, err = g.Read()
	require.NoError(t, err)

	g.Reset()
	require.Equal(t, Empty, d.State(), "resetting the group must reset every child filter")
}
