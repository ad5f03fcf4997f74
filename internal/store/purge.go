package store

import (
	"context"
	"fmt"
)

// PurgeDomain deletes every record of one domain.
func (s *Store) PurgeDomain(ctx context.Context, domain string) error {
	if !validDomain(domain) {
		return fmt.Errorf("unknown domain: %s", domain)
	}
	if !s.Available() {
		s.droppedWrite(domain)
		return nil
	}
	// Domain names are drawn from the fixed Domains list, never user input.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+domain); err != nil {
		return err
	}
	s.notifyCommit(domain)
	return nil
}

// PurgeAll clears every domain. Each domain is attempted independently; a
// failing domain is logged and skipped so the remaining domains still clear.
// Returns the number of domains purged.
func (s *Store) PurgeAll(ctx context.Context) int {
	purged := 0
	for _, domain := range Domains {
		if err := s.PurgeDomain(ctx, domain); err != nil {
			s.log.Warn("purge failed; continuing with remaining domains", "domain", domain, "error", err)
			continue
		}
		purged++
	}
	return purged
}

func validDomain(domain string) bool {
	for _, d := range Domains {
		if d == domain {
			return true
		}
	}
	return false
}
