package index

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

// migrate applies embedded schema migrations in version order.
func migrate(db *sql.DB, fsys embed.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// loadChunks reads all chunk rows ordered by vector slot.
func loadChunks(ctx context.Context, db *sql.DB) ([]domain.Chunk, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT paper_id, text, chunk_index, section, section_level,
		       start_pos, end_pos, provenance
		FROM chunks ORDER BY vector_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var provenance string
		if err := rows.Scan(&c.PaperID, &c.Text, &c.ChunkIndex, &c.Section,
			&c.SectionLevel, &c.StartPos, &c.EndPos, &provenance); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Provenance = domain.ChunkProvenance(provenance)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// insertChunks appends rows at explicit vector slots starting at base.
func insertChunks(ctx context.Context, tx *sql.Tx, base int, chunks []domain.Chunk) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (vector_id, paper_id, text, chunk_index, section,
		                    section_level, start_pos, end_pos, provenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, base+i, c.PaperID, c.Text, c.ChunkIndex,
			c.Section, c.SectionLevel, c.StartPos, c.EndPos, string(c.Provenance)); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", base+i, err)
		}
	}
	return nil
}

// deleteAllChunks empties the metadata table.
func deleteAllChunks(db *sql.DB) error {
	if _, err := db.Exec("DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks table: %w", err)
	}
	return nil
}
