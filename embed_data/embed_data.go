// Package embed_data carries the tree-sitter queries used for context
// extraction. Each file is a JSON map of tag to query.
package embed_data

import _ "embed"

//go:embed code_queries/go.json
var GoQuery []byte

//go:embed code_queries/python.json
var PythonQuery []byte

//go:embed code_queries/javascript.json
var JavascriptQuery []byte

//go:embed code_queries/typescript.json
var TypescriptQuery []byte

//go:embed code_queries/java.json
var JavaQuery []byte

//go:embed code_queries/csharp.json
var CSharpQuery []byte
