// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	_ "embed"
	"html/template"
)

//go:embed template.html
var pageTemplate string

var page = template.Must(template.New("page").Parse(pageTemplate))
