package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/importer"

	"github.com/fatih/color"
)

// inspect_import previews what an exported story file would put in a queue.
//
//	go run ./cmd/inspect_import -player ana export.json
func main() {
	player := flag.String("player", "", "player id to import when the file has several")
	flag.Parse()

	var in io.Reader = os.Stdin
	if path := flag.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("open %s: %v", path, err)
		}
		defer f.Close()
		in = f
	}

	records, err := importer.Parse(in)
	if err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}

	adapter := importer.NewAdapter(nil, time.Local)
	plan, err := adapter.Plan(records)
	if err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}

	color.Cyan("%d records read, %s", len(records), plan.Summary())

	beads := plan.Beads
	if plan.NeedsOwner() {
		if *player == "" {
			color.Yellow("Players in this file:")
			for _, owner := range plan.Owners {
				fmt.Printf("  - %s\n", owner)
			}
			color.Yellow("Re-run with -player <id> to preview one of them.")
			return
		}
		beads, err = adapter.Choose(plan.Stories, *player)
		if err != nil {
			color.Red("✗ %v", err)
			os.Exit(1)
		}
	}

	printBeads(beads)
}

func printBeads(beads []bead.Bead) {
	title := color.New(color.Bold, color.FgGreen).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for i, b := range beads {
		fmt.Printf("%2d. %s %s %s\n", i+1, title(b.Title), dim(b.Date), dim(b.DominantColor))
		fmt.Printf("    %s\n", b.Prompt)
		if b.UserStory != "" {
			fmt.Printf("    %s\n", dim(snippet(b.UserStory, 80)))
		}
		if n := len(b.AdditionalImages); n > 0 || b.AudioUrl != "" {
			fmt.Printf("    %s\n", dim(fmt.Sprintf("%d images, audio: %t", n+boolInt(b.ImageUrl != ""), b.AudioUrl != "")))
		}
	}
	color.Green("✓ %d drafts would replace the queue", len(beads))
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
