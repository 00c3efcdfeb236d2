package md

import "fmt"

// Table identifies a metadata table, the top byte of a Token.
type Table uint8

const (
	TableModule      Table = 0x00
	TableTypeRef     Table = 0x01
	TableTypeDef     Table = 0x02
	TableField       Table = 0x04
	TableMethodDef   Table = 0x06
	TableEvent       Table = 0x14
	TableModuleRef   Table = 0x1a
	TableAssemblyRef Table = 0x23
)

var tableNames = map[Table]string{
	TableModule:      "Module",
	TableTypeRef:     "TypeRef",
	TableTypeDef:     "TypeDef",
	TableField:       "Field",
	TableMethodDef:   "MethodDef",
	TableEvent:       "Event",
	TableModuleRef:   "ModuleRef",
	TableAssemblyRef: "AssemblyRef",
}

func (t Table) String() string {
	if name, ok := tableNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Table(0x%02x)", uint8(t))
}

// Token is a metadata token: table in the top byte, 1-based row in the rest.
type Token uint32

const ridMask = 0x00ffffff

// NewToken builds the token for row rid of table t.
func NewToken(t Table, rid uint32) Token {
	return Token(uint32(t)<<24 | rid&ridMask)
}

func (t Token) Table() Table { return Table(t >> 24) }

func (t Token) RID() uint32 { return uint32(t) & ridMask }

// IsNil reports whether the token points at no row.
func (t Token) IsNil() bool { return t.RID() == 0 }

func (t Token) String() string {
	return fmt.Sprintf("0x%08x", uint32(t))
}
