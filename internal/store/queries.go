package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNoRows signals that a lookup matched nothing.
var ErrNoRows = errors.New("no matching rows")

// Read operations backing the query CLI and the archive exporter. They run
// against the same schema the tracker writes, usually from a separate
// process over the database file.

// MappingStats aggregates the recorded replacements and change mappings.
type MappingStats struct {
	TotalReplacements         int64
	UniqueChangeAddresses     int64
	MultiEventChangeAddresses int64
	TotalMappings             int64
	UniqueInputAddresses      int64
}

// RecentReplacements returns up to limit replacement events, newest first.
func (s *Store) RecentReplacements(limit int) ([]Replacement, error) {
	var rows []Replacement
	err := s.db.Order("detected_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query recent replacements: %w", err)
	}
	return rows, nil
}

// InputsForChange lists the distinct input addresses recorded for a change
// address. With latestOnly, only mappings of the most recent replacement
// event for that address are considered.
func (s *Store) InputsForChange(changeAddr string, latestOnly bool) ([]string, error) {
	var addrs []string

	if latestOnly {
		var last Replacement
		err := s.db.Where("change_address = ?", changeAddr).
			Order("detected_at DESC").
			First(&last).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoRows
			}
			return nil, fmt.Errorf("query latest replacement: %w", err)
		}
		err = s.db.Model(&ChangeInput{}).
			Distinct("input_address").
			Where("orig_txid = ? AND new_txid = ? AND change_address = ?",
				last.OrigTxid, last.NewTxid, changeAddr).
			Pluck("input_address", &addrs).Error
		if err != nil {
			return nil, fmt.Errorf("query inputs for change: %w", err)
		}
		return addrs, nil
	}

	err := s.db.Model(&ChangeInput{}).
		Distinct("input_address").
		Where("change_address = ?", changeAddr).
		Pluck("input_address", &addrs).Error
	if err != nil {
		return nil, fmt.Errorf("query inputs for change: %w", err)
	}
	return addrs, nil
}

// ChangesForInput lists the distinct change addresses an input address
// funded. With latestOnly, only the most recent mapping is returned.
func (s *Store) ChangesForInput(inputAddr string, latestOnly bool) ([]string, error) {
	var addrs []string

	if latestOnly {
		var last ChangeInput
		err := s.db.Where("input_address = ?", inputAddr).
			Order("detected_at DESC").
			First(&last).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoRows
			}
			return nil, fmt.Errorf("query latest mapping: %w", err)
		}
		return []string{last.ChangeAddress}, nil
	}

	err := s.db.Model(&ChangeInput{}).
		Distinct("change_address").
		Where("input_address = ?", inputAddr).
		Pluck("change_address", &addrs).Error
	if err != nil {
		return nil, fmt.Errorf("query changes for input: %w", err)
	}
	return addrs, nil
}

// Stats computes the aggregate view over replacements and mappings.
func (s *Store) Stats() (MappingStats, error) {
	var stats MappingStats

	err := s.db.Model(&Replacement{}).Count(&stats.TotalReplacements).Error
	if err != nil {
		return stats, fmt.Errorf("count replacements: %w", err)
	}

	err = s.db.Model(&Replacement{}).
		Distinct("change_address").
		Count(&stats.UniqueChangeAddresses).Error
	if err != nil {
		return stats, fmt.Errorf("count unique change addresses: %w", err)
	}

	err = s.db.Raw(
		`SELECT COUNT(*) FROM (
			SELECT change_address FROM replacements
			GROUP BY change_address HAVING COUNT(*) > 1
		)`).Scan(&stats.MultiEventChangeAddresses).Error
	if err != nil {
		return stats, fmt.Errorf("count multi-event change addresses: %w", err)
	}

	err = s.db.Model(&ChangeInput{}).Count(&stats.TotalMappings).Error
	if err != nil {
		return stats, fmt.Errorf("count mappings: %w", err)
	}

	err = s.db.Model(&ChangeInput{}).
		Distinct("input_address").
		Count(&stats.UniqueInputAddresses).Error
	if err != nil {
		return stats, fmt.Errorf("count unique input addresses: %w", err)
	}

	return stats, nil
}

// ArchiveTarget identifies one replacement transaction to archive together
// with the change address attributed to it.
type ArchiveTarget struct {
	NewTxid       string
	ChangeAddress string
}

// ArchiveTargets lists the distinct (new_txid, change_address) pairs from
// the permanent mapping table, used by the archive exporter.
func (s *Store) ArchiveTargets() ([]ArchiveTarget, error) {
	var targets []ArchiveTarget
	err := s.db.Model(&ChangeInput{}).
		Distinct("new_txid", "change_address").
		Find(&targets).Error
	if err != nil {
		return nil, fmt.Errorf("query archive targets: %w", err)
	}
	return targets, nil
}
