package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToken(t *testing.T) {
	tok := NewToken(TableTypeDef, 5)
	assert.Equal(t, Token(0x02000005), tok)
	assert.Equal(t, TableTypeDef, tok.Table())
	assert.Equal(t, uint32(5), tok.RID())
	assert.False(t, tok.IsNil())
	assert.Equal(t, "0x02000005", tok.String())

	assert.True(t, NewToken(TableTypeRef, 0).IsNil())
	assert.Equal(t, uint32(0x00ffffff), NewToken(TableField, 0xffffffff).RID())
	assert.Equal(t, TableField, NewToken(TableField, 0xffffffff).Table())
}

func TestTableString(t *testing.T) {
	assert.Equal(t, "AssemblyRef", TableAssemblyRef.String())
	assert.Equal(t, "Table(0x7f)", Table(0x7f).String())
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		full, namespace, name string
	}{
		{"System.Collections.Generic.List`1", "System.Collections.Generic", "List`1"},
		{"Program", "", "Program"},
		{"N.T", "N", "T"},
	}
	for _, tt := range tests {
		ns, name := SplitName(tt.full)
		assert.Equal(t, tt.namespace, ns, tt.full)
		assert.Equal(t, tt.name, name, tt.full)
		assert.Equal(t, tt.full, joinName(ns, name))
	}
}
