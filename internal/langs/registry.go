package langs

import (
	"unsafe"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/sibyllinesoft/valknut/internal/types"
)

// Registry returns every language profile valknut ships. New languages are
// added by appending a Profile here; the shared Adapter needs no changes.
func Registry() []*Profile {
	return []*Profile{
		goProfile(),
		pythonProfile(),
		javascriptProfile(),
		typescriptProfile(),
		javaProfile(),
		csharpProfile(),
		cppProfile(),
		rustProfile(),
		phpProfile(),
		zigProfile(),
	}
}

func goProfile() *Profile {
	return &Profile{
		Name:       "go",
		Extensions: []string{".go"},
		Language:   func() unsafe.Pointer { return tree_sitter_go.Language() },
		EntityQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(method_declaration
				receiver: (parameter_list) @method.receiver
				name: (field_identifier) @method.name) @method
			(type_declaration
				(type_spec name: (type_identifier) @type.name)) @type
			(func_literal) @function
			(import_spec path: (interpreted_string_literal) @import.path) @import
		`,
		CaptureKinds:   map[string]types.EntityKind{"function": types.KindFunction, "method": types.KindMethod, "type": types.KindClass},
		CallNodeKinds:  set("call_expression"),
		BlockNodeKinds: set("if_statement", "for_statement", "switch_statement", "select_statement", "block"),
	}
}

func pythonProfile() *Profile {
	return &Profile{
		Name:       "python",
		Extensions: []string{".py"},
		Language:   func() unsafe.Pointer { return tree_sitter_python.Language() },
		EntityQuery: `
			(class_definition
				body: (block
					(function_definition name: (identifier) @method.name))) @method
			(function_definition name: (identifier) @function.name) @function
			(class_definition name: (identifier) @class.name) @class
			(import_statement) @import
			(import_from_statement) @import
		`,
		CaptureKinds:   map[string]types.EntityKind{"function": types.KindFunction, "method": types.KindMethod, "class": types.KindClass},
		CallNodeKinds:  set("call"),
		BlockNodeKinds: set("if_statement", "for_statement", "while_statement", "try_statement", "with_statement"),
	}
}

func javascriptProfile() *Profile {
	return &Profile{
		Name:       "javascript",
		Extensions: []string{".js", ".jsx"},
		Language:   func() unsafe.Pointer { return tree_sitter_javascript.Language() },
		EntityQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(variable_declarator
				name: (identifier) @function.name
				value: [(arrow_function) (function_expression) (generator_function)]) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (identifier) @class.name) @class
			(import_statement source: (string) @import.source) @import
		`,
		CaptureKinds:   map[string]types.EntityKind{"function": types.KindFunction, "method": types.KindMethod, "class": types.KindClass},
		CallNodeKinds:  set("call_expression"),
		BlockNodeKinds: set("if_statement", "for_statement", "for_in_statement", "while_statement", "try_statement", "switch_statement"),
	}
}

func typescriptProfile() *Profile {
	return &Profile{
		Name:       "typescript",
		Extensions: []string{".ts", ".tsx"},
		Language:   func() unsafe.Pointer { return tree_sitter_typescript.LanguageTypescript() },
		EntityQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @method.name) @method
			(function_expression name: (identifier) @function.name) @function
			(class_declaration name: (type_identifier) @class.name) @class
			(interface_declaration name: (type_identifier) @interface.name) @interface
			(enum_declaration name: (identifier) @enum.name) @enum
			(import_statement source: (string) @import.source) @import
		`,
		CaptureKinds:   map[string]types.EntityKind{"function": types.KindFunction, "method": types.KindMethod, "class": types.KindClass, "interface": types.KindClass, "enum": types.KindClass},
		CallNodeKinds:  set("call_expression"),
		BlockNodeKinds: set("if_statement", "for_statement", "for_in_statement", "while_statement", "try_statement", "switch_statement"),
	}
}

func javaProfile() *Profile {
	return &Profile{
		Name:       "java",
		Extensions: []string{".java"},
		Language:   func() unsafe.Pointer { return tree_sitter_java.Language() },
		EntityQuery: `
			(method_declaration name: (identifier) @method.name) @method
			(constructor_declaration name: (identifier) @constructor.name) @constructor
			(class_declaration name: (identifier) @class.name) @class
			(record_declaration name: (identifier) @class.name) @class
			(interface_declaration name: (identifier) @interface.name) @interface
			(enum_declaration name: (identifier) @enum.name) @enum
			(import_declaration) @import
		`,
		CaptureKinds:   map[string]types.EntityKind{"method": types.KindMethod, "constructor": types.KindMethod, "class": types.KindClass, "interface": types.KindClass, "enum": types.KindClass},
		CallNodeKinds:  set("method_invocation", "object_creation_expression"),
		BlockNodeKinds: set("if_statement", "for_statement", "while_statement", "try_statement", "switch_expression"),
	}
}

func csharpProfile() *Profile {
	return &Profile{
		Name:       "csharp",
		Extensions: []string{".cs"},
		Language:   func() unsafe.Pointer { return tree_sitter_csharp.Language() },
		EntityQuery: `
			(method_declaration name: (identifier) @method.name) @method
			(constructor_declaration name: (identifier) @constructor.name) @constructor
			(class_declaration name: (identifier) @class.name) @class
			(interface_declaration name: (identifier) @interface.name) @interface
			(struct_declaration name: (identifier) @struct.name) @struct
			(enum_declaration name: (identifier) @enum.name) @enum
			(using_directive (qualified_name) @using.name) @import
			(using_directive (identifier) @using.name) @import
		`,
		CaptureKinds:   map[string]types.EntityKind{"method": types.KindMethod, "constructor": types.KindMethod, "class": types.KindClass, "interface": types.KindClass, "struct": types.KindClass, "enum": types.KindClass},
		CallNodeKinds:  set("invocation_expression", "object_creation_expression"),
		BlockNodeKinds: set("if_statement", "for_statement", "while_statement", "try_statement", "switch_statement"),
	}
}

func cppProfile() *Profile {
	return &Profile{
		Name:       "cpp",
		Extensions: []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp"},
		Language:   func() unsafe.Pointer { return tree_sitter_cpp.Language() },
		EntityQuery: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
			(class_specifier name: (type_identifier) @class.name) @class
			(struct_specifier name: (type_identifier) @struct.name) @struct
			(enum_specifier name: (type_identifier) @enum.name) @enum
			(preproc_include) @import
			(using_declaration) @import
		`,
		CaptureKinds:   map[string]types.EntityKind{"function": types.KindFunction, "class": types.KindClass, "struct": types.KindClass, "enum": types.KindClass},
		CallNodeKinds:  set("call_expression"),
		BlockNodeKinds: set("if_statement", "for_statement", "while_statement", "try_statement", "switch_statement"),
	}
}

func rustProfile() *Profile {
	return &Profile{
		Name:       "rust",
		Extensions: []string{".rs"},
		Language:   func() unsafe.Pointer { return tree_sitter_rust.Language() },
		EntityQuery: `
			(impl_item
				body: (declaration_list
					(function_item name: (identifier) @method.name))) @method
			(trait_item
				body: (declaration_list
					(function_item name: (identifier) @method.name))) @method
			(function_item name: (identifier) @function.name) @function
			(struct_item name: (type_identifier) @struct.name) @struct
			(enum_item name: (type_identifier) @enum.name) @enum
			(trait_item name: (type_identifier) @interface.name) @interface
			(use_declaration) @import
			(mod_item name: (identifier) @module.name) @module
		`,
		CaptureKinds:   map[string]types.EntityKind{"function": types.KindFunction, "method": types.KindMethod, "struct": types.KindClass, "enum": types.KindClass, "interface": types.KindClass, "module": types.KindModule},
		CallNodeKinds:  set("call_expression", "macro_invocation"),
		BlockNodeKinds: set("if_expression", "for_expression", "while_expression", "loop_expression", "match_expression"),
	}
}

func phpProfile() *Profile {
	return &Profile{
		Name:       "php",
		Extensions: []string{".php", ".phtml"},
		Language:   func() unsafe.Pointer { return tree_sitter_php.LanguagePHP() },
		EntityQuery: `
			(class_declaration name: (name) @class.name) @class
			(interface_declaration name: (name) @interface.name) @interface
			(trait_declaration name: (name) @trait.name) @trait
			(enum_declaration name: (name) @enum.name) @enum
			(function_definition name: (name) @function.name) @function
			(method_declaration name: (name) @method.name) @method
			(namespace_use_declaration) @import
		`,
		CaptureKinds:   map[string]types.EntityKind{"function": types.KindFunction, "method": types.KindMethod, "class": types.KindClass, "interface": types.KindClass, "trait": types.KindClass, "enum": types.KindClass},
		CallNodeKinds:  set("function_call_expression", "member_call_expression", "scoped_call_expression"),
		BlockNodeKinds: set("if_statement", "foreach_statement", "for_statement", "while_statement", "try_statement", "switch_statement"),
	}
}

func zigProfile() *Profile {
	return &Profile{
		Name:       "zig",
		Extensions: []string{".zig"},
		Language:   func() unsafe.Pointer { return tree_sitter_zig.Language() },
		EntityQuery: `
			(function_declaration (identifier) @function.name) @function
			(variable_declaration
				(identifier) @struct.name
				(struct_declaration) @struct)
			(variable_declaration
				(identifier) @struct.name
				(union_declaration) @struct)
		`,
		CaptureKinds:   map[string]types.EntityKind{"function": types.KindFunction, "struct": types.KindClass},
		CallNodeKinds:  set("call_expression", "builtin_call_expression"),
		BlockNodeKinds: set("if_expression", "for_expression", "while_expression", "switch_expression"),
	}
}

// ForExtension returns the profile that handles a file extension, if any.
func ForExtension(profiles []*Profile, ext string) *Profile {
	for _, p := range profiles {
		for _, e := range p.Extensions {
			if e == ext {
				return p
			}
		}
	}
	return nil
}
