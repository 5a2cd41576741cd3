// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

const (
	// varBlockName is the block that defines variables.
	varBlockName = "variables"

	// varObjectName is the object through which variables are referenced.
	varObjectName = "var"
)

// Variables evaluates the attributes of all "variables" blocks in the body
// and exposes them through the "var" object of the evaluation context. The
// body without the variables blocks is returned.
//
// Variables may reference each other in any order:
//
//	variables {
//	  agent   = format("%s/%s", var.product, var.version)
//	  product = "Serigoela"
//	  version = "1.0.0"
//	}
//
// When a name is defined more than once, the last definition wins.
func Variables(ctx *hcl.EvalContext, body hcl.Body) (hcl.Body, hcl.Diagnostics) {
	content, remain, diags := body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: varBlockName}},
	})
	if diags.HasErrors() {
		return nil, diags
	}
	attrs := make(map[string]*hcl.Attribute)
	for _, block := range content.Blocks {
		battrs, bdiags := block.Body.JustAttributes()
		diags = diags.Extend(bdiags)
		for name, attr := range battrs {
			attrs[name] = attr
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	order, diags := sortVariables(ctx, attrs)
	if diags.HasErrors() {
		return nil, diags
	}
	if ctx.Variables == nil {
		ctx.Variables = make(map[string]cty.Value)
	}
	values := make(map[string]cty.Value, len(order))
	ctx.Variables[varObjectName] = cty.EmptyObjectVal
	for _, attr := range order {
		v, vdiags := attr.Expr.Value(ctx)
		diags = diags.Extend(vdiags)
		if vdiags.HasErrors() {
			return nil, diags
		}
		values[attr.Name] = v
		ctx.Variables[varObjectName] = cty.ObjectVal(maps.Clone(values))
	}
	return remain, diags
}

// sortVariables orders the attributes so that every variable comes after
// the variables it references. References to undefined variables are left
// for evaluation to report.
func sortVariables(ctx *hcl.EvalContext, attrs map[string]*hcl.Attribute) ([]*hcl.Attribute, hcl.Diagnostics) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	// Sorted so that evaluation order and diagnostics are deterministic.
	sort.Strings(names)

	var (
		res     []*hcl.Attribute
		visited = make(map[string]bool, len(attrs))
		stack   = make(map[string]bool, len(attrs))
		path    []string
	)
	var visit func(name string) hcl.Diagnostics
	visit = func(name string) hcl.Diagnostics {
		attr, ok := attrs[name]
		if !ok || visited[name] {
			return nil
		}
		if stack[name] {
			return hcl.Diagnostics{{
				Severity:    hcl.DiagError,
				Summary:     "Circular reference detected",
				Detail:      fmt.Sprintf("Variable %q refers to itself: %s.", name, strings.Join(append(path, name), " -> ")),
				Subject:     attr.Expr.Range().Ptr(),
				Expression:  attr.Expr,
				EvalContext: ctx,
			}}
		}
		stack[name] = true
		path = append(path, name)
		for _, ref := range references(attr.Expr) {
			if diags := visit(ref); diags.HasErrors() {
				return diags
			}
		}
		path = path[:len(path)-1]
		stack[name] = false
		visited[name] = true
		res = append(res, attr)
		return nil
	}
	for _, name := range names {
		if diags := visit(name); diags.HasErrors() {
			return nil, diags
		}
	}
	return res, nil
}

// references returns the names of the variables used by an expression.
func references(expr hcl.Expression) []string {
	var names []string
	for _, tr := range expr.Variables() {
		if tr.RootName() != varObjectName || len(tr) < 2 {
			continue
		}
		if attr, ok := tr[1].(hcl.TraverseAttr); ok {
			names = append(names, attr.Name)
		}
	}
	return names
}
