// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package infer

// builtinReturns is the return type of built-in functions.
var builtinReturns = map[string]Type{
	"len":        Int,
	"int":        Int,
	"ord":        Int,
	"hash":       Int,
	"id":         Int,
	"float":      Float,
	"str":        String,
	"repr":       String,
	"chr":        String,
	"format":     String,
	"input":      String,
	"hex":        String,
	"oct":        String,
	"bin":        String,
	"ascii":      String,
	"bool":       Bool,
	"isinstance": Bool,
	"issubclass": Bool,
	"hasattr":    Bool,
	"callable":   Bool,
	"all":        Bool,
	"any":        Bool,
	"bytes":      Bytes,
	"list":       List,
	"sorted":     List,
	"dict":       Dict,
	"set":        Set,
	"frozenset":  Set,
	"tuple":      Tuple,
	"divmod":     Tuple,
	"range":      Iterable,
	"enumerate":  Iterable,
	"zip":        Iterable,
	"map":        Iterable,
	"filter":     Iterable,
	"reversed":   Iterable,
	"iter":       Iterable,
	"print":      None,
}

// methodReturns is the return type of methods given the type of the receiver.
var methodReturns = map[Type]map[string]Type{
	String: {
		"upper":        String,
		"lower":        String,
		"strip":        String,
		"lstrip":       String,
		"rstrip":       String,
		"replace":      String,
		"join":         String,
		"format":       String,
		"title":        String,
		"capitalize":   String,
		"casefold":     String,
		"center":       String,
		"ljust":        String,
		"rjust":        String,
		"zfill":        String,
		"swapcase":     String,
		"expandtabs":   String,
		"removeprefix": String,
		"removesuffix": String,
		"split":        List,
		"rsplit":       List,
		"splitlines":   List,
		"partition":    Tuple,
		"rpartition":   Tuple,
		"find":         Int,
		"rfind":        Int,
		"index":        Int,
		"rindex":       Int,
		"count":        Int,
		"startswith":   Bool,
		"endswith":     Bool,
		"isdigit":      Bool,
		"isalpha":      Bool,
		"isalnum":      Bool,
		"isspace":      Bool,
		"isupper":      Bool,
		"islower":      Bool,
		"isnumeric":    Bool,
		"isdecimal":    Bool,
		"istitle":      Bool,
		"isidentifier": Bool,
		"encode":       Bytes,
	},
	Bytes: {
		"decode": String,
		"hex":    String,
		"count":  Int,
		"find":   Int,
		"index":  Int,
		"upper":  Bytes,
		"lower":  Bytes,
		"strip":  Bytes,
	},
	List: {
		"count":   Int,
		"index":   Int,
		"copy":    List,
		"append":  None,
		"extend":  None,
		"insert":  None,
		"remove":  None,
		"sort":    None,
		"reverse": None,
		"clear":   None,
	},
	Dict: {
		"keys":   Iterable,
		"values": Iterable,
		"items":  Iterable,
		"copy":   Dict,
		"update": None,
		"clear":  None,
	},
	Set: {
		"union":                Set,
		"intersection":         Set,
		"difference":           Set,
		"symmetric_difference": Set,
		"copy":                 Set,
		"issubset":             Bool,
		"issuperset":           Bool,
		"isdisjoint":           Bool,
		"add":                  None,
		"discard":              None,
		"clear":                None,
	},
	Tuple: {
		"count": Int,
		"index": Int,
	},
}

// mathReturns is the type of the members of the math module.
var mathReturns = map[string]Type{
	"pi":        Float,
	"e":         Float,
	"tau":       Float,
	"inf":       Float,
	"nan":       Float,
	"sqrt":      Float,
	"exp":       Float,
	"log":       Float,
	"log2":      Float,
	"log10":     Float,
	"sin":       Float,
	"cos":       Float,
	"tan":       Float,
	"asin":      Float,
	"acos":      Float,
	"atan":      Float,
	"atan2":     Float,
	"hypot":     Float,
	"fabs":      Float,
	"pow":       Float,
	"radians":   Float,
	"degrees":   Float,
	"floor":     Int,
	"ceil":      Int,
	"trunc":     Int,
	"gcd":       Int,
	"factorial": Int,
	"isqrt":     Int,
	"comb":      Int,
	"perm":      Int,
	"isnan":     Bool,
	"isinf":     Bool,
	"isfinite":  Bool,
	"isclose":   Bool,
}
