package codeparse

import (
	"unsafe"

	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type definition struct {
	language func() unsafe.Pointer
	outline  string
}

var definitions = map[string]definition{
	"python": {
		language: tree_sitter_python.Language,
		outline: `
		(function_definition name: (identifier) @name) @function
		(class_definition name: (identifier) @name) @class
		`,
	},
	"go": {
		language: tree_sitter_go.Language,
		outline: `
		(function_declaration name: (identifier) @name) @function
		(method_declaration name: (field_identifier) @name) @method
		(type_spec name: (type_identifier) @name) @type
		`,
	},
	"java": {
		language: tree_sitter_java.Language,
		outline: `
		(class_declaration name: (identifier) @name) @class
		(interface_declaration name: (identifier) @name) @interface
		(enum_declaration name: (identifier) @name) @enum
		(constructor_declaration name: (identifier) @name) @constructor
		(method_declaration name: (identifier) @name) @method
		`,
	},
	"c": {
		language: tree_sitter_c.Language,
		outline: `
		(function_definition
			declarator: (function_declarator declarator: (identifier) @name)) @function
		(function_definition
			declarator: (pointer_declarator
				declarator: (function_declarator declarator: (identifier) @name))) @function
		(struct_specifier
			name: (type_identifier) @name
			body: (field_declaration_list)) @struct
		`,
	},
	"typescript": {
		language: tree_sitter_typescript.LanguageTypescript,
		outline: `
		(function_declaration name: (identifier) @name) @function
		(class_declaration name: (type_identifier) @name) @class
		(interface_declaration name: (type_identifier) @name) @interface
		(method_definition name: (property_identifier) @name) @method
		`,
	},
}
