// Package md models CLI metadata identities: tokens, type definitions and
// references, and the scopes references are resolved against.
//
// The lookup surface follows IMetaDataImport: FindTypeDefByName becomes
// Importer.FindTypeDef, FindTypeRef becomes Importer.FindTypeRef and
// GetVersionString becomes Importer.VersionString. Enumerations are
// iter.Seq values instead of enumerator handles, so there is nothing to close
// or count.
//
// TypeHandle and ResolutionScope are closed unions: their marker methods are
// unexported, so only the types in this package implement them.
package md
