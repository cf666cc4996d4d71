// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/jeranaias/meshbench/internal/detect"
)

// HandleHost prints the metadata recorded with every run.
func HandleHost(args Args) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*detect.ProbeTimeout)
	defer cancel()

	meta := detect.Collect(ctx).Map()
	if args.JSON {
		return NewJSONResponse("host", meta).Print()
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println(TitleStyle.Render("Host metadata"))
	for _, k := range keys {
		v := meta[k]
		if v == "" {
			v = DimStyle.Render("unknown")
		}
		fmt.Printf("%s %s\n", RenderLabel(k+":"), v)
	}
	return nil
}
