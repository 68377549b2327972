// file: internal/calibre/calibre.go
// version: 1.0.0
// guid: 4cf3a4b5-c6d7-e8f9-a0b1-c2d3e4f5a6b7

// Package calibre writes resolved identifiers back into a calibre library
// through the calibredb command line tool.
package calibre

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jdfalk/audiobook-asin/internal/asin"
)

// Client drives calibredb against one library.
type Client struct {
	// Library is the path passed as --with-library. Empty uses the
	// calibredb default library.
	Library string
}

// Available reports whether calibredb is on PATH.
func Available() bool {
	_, err := exec.LookPath("calibredb")
	return err == nil
}

// SetASIN stores id's amazon identifier field. The book id is calibre's
// numeric id, not an ISBN.
func (c *Client) SetASIN(ctx context.Context, bookID int, id string) error {
	id = asin.Normalize(id)
	if !asin.Valid(id) {
		return fmt.Errorf("refusing to write invalid identifier %q", id)
	}
	if _, err := exec.LookPath("calibredb"); err != nil {
		return fmt.Errorf("calibredb not found in PATH (install calibre or add its bin directory): %w", err)
	}

	args := setMetadataArgs(c.Library, bookID, id)
	cmd := exec.CommandContext(ctx, "calibredb", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("calibredb set_metadata failed: %w, output=%s", err, output)
	}
	log.Printf("[DEBUG] calibre: wrote identifier %s to book %d", id, bookID)
	return nil
}

// FindBookID searches the library for a title/author pair and returns the
// first matching calibre book id, or 0 when nothing matches.
func (c *Client) FindBookID(ctx context.Context, title, author string) (int, error) {
	if _, err := exec.LookPath("calibredb"); err != nil {
		return 0, fmt.Errorf("calibredb not found in PATH (install calibre or add its bin directory): %w", err)
	}

	args := searchArgs(c.Library, title, author)
	cmd := exec.CommandContext(ctx, "calibredb", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// calibredb exits nonzero when the search matches nothing.
		return 0, nil
	}
	ids := strings.Split(strings.TrimSpace(string(output)), ",")
	if len(ids) == 0 || ids[0] == "" {
		return 0, nil
	}
	bookID, err := strconv.Atoi(strings.TrimSpace(ids[0]))
	if err != nil {
		return 0, fmt.Errorf("unexpected calibredb search output %q: %w", output, err)
	}
	return bookID, nil
}

func setMetadataArgs(library string, bookID int, id string) []string {
	args := []string{"set_metadata"}
	if library != "" {
		args = append(args, "--with-library", library)
	}
	args = append(args,
		"--field", "identifiers:amazon:"+id,
		strconv.Itoa(bookID),
	)
	return args
}

func searchArgs(library, title, author string) []string {
	args := []string{"search"}
	if library != "" {
		args = append(args, "--with-library", library)
	}
	query := fmt.Sprintf("title:%q", title)
	if author != "" {
		query += fmt.Sprintf(" and author:%q", author)
	}
	args = append(args, query)
	return args
}
