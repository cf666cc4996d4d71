// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the color palette and shared Lip Gloss styles for
meshbench terminal output.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Colors

  - Purple - Titles and table headers
  - Cyan - Scenario keys
  - Emerald - Completed scenarios and faster results
  - Amber - Running scenarios and warnings
  - Rose - Failures and slower results

# Usage

	fmt.Println(styles.Title.Render("Mesh benchmark"))
	color := styles.Speedup(comparison.GeoMeanSpeedup())
*/
package styles
