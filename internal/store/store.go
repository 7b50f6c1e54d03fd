package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps the SQLite database holding the tracker schema. The tracker
// accesses it from a single writer goroutine; the query CLI opens it
// read-only from a separate process.
type Store struct {
	db *gorm.DB
}

// Open connects to the database at path, or to an in-memory database when
// path is empty, and migrates the schema. Failure here is fatal to the
// service: nothing can run without its store.
func Open(path string) (*Store, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		// WAL journal with relaxed sync, matching how the file is
		// consumed by the external query tool.
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&Transaction{},
		&TxInput{},
		&TxOutput{},
		&RBFCandidate{},
		&Replacement{},
		&ChangeInput{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db conn: %w", err)
	}
	return sqlDB.Close()
}

// Transact runs fn atomically. All writes of one batch flush go through a
// single call so a crash loses the flush as a whole, never a prefix of it.
func (s *Store) Transact(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// InsertTransaction inserts the row if the txid was not seen before.
func (s *Store) InsertTransaction(t Transaction) error {
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&t).Error
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) InsertInputs(rows []TxInput) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert inputs: %w", err)
	}
	return nil
}

func (s *Store) InsertOutputs(rows []TxOutput) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("insert outputs: %w", err)
	}
	return nil
}

func (s *Store) InsertRBFCandidate(c RBFCandidate) error {
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error
	if err != nil {
		return fmt.Errorf("insert rbf candidate: %w", err)
	}
	return nil
}

// InsertReplacement is idempotent: a duplicate key attempt is a no-op.
func (s *Store) InsertReplacement(r Replacement) error {
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("insert replacement: %w", err)
	}
	return nil
}

// InsertChangeInputs is idempotent per row.
func (s *Store) InsertChangeInputs(rows []ChangeInput) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("insert change inputs: %w", err)
	}
	return nil
}

// RBFSpenders returns all RBF candidate txids that consumed the given
// outpoint. A second spender of the same outpoint is a double-spend and a
// potential replacement.
func (s *Store) RBFSpenders(prevTxid string, prevVout uint32) ([]string, error) {
	var txids []string
	err := s.db.Model(&TxInput{}).
		Distinct("tx_inputs.txid").
		Joins("JOIN rbf_txs ON rbf_txs.txid = tx_inputs.txid").
		Where("tx_inputs.prev_txid = ? AND tx_inputs.prev_vout = ?", prevTxid, prevVout).
		Pluck("tx_inputs.txid", &txids).Error
	if err != nil {
		return nil, fmt.Errorf("query rbf spenders: %w", err)
	}
	return txids, nil
}

// Outputs returns all persisted outputs of a transaction.
func (s *Store) Outputs(txid string) ([]TxOutput, error) {
	var rows []TxOutput
	err := s.db.Where("txid = ?", txid).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query outputs: %w", err)
	}
	return rows, nil
}

// InputAddresses returns the distinct known input addresses of a
// transaction. Inputs without a prevout address are left out.
func (s *Store) InputAddresses(txid string) ([]string, error) {
	var addrs []string
	err := s.db.Model(&TxInput{}).
		Distinct("address").
		Where("txid = ? AND address IS NOT NULL", txid).
		Pluck("address", &addrs).Error
	if err != nil {
		return nil, fmt.Errorf("query input addresses: %w", err)
	}
	return addrs, nil
}

// Purge removes transient rows older than cutoff and cleans up inputs and
// outputs orphaned by transaction removal. change_inputs rows are exempt
// unconditionally.
func (s *Store) Purge(cutoff time.Time) error {
	err := s.db.Where("fetched_at < ?", cutoff).Delete(&Transaction{}).Error
	if err != nil {
		return fmt.Errorf("purge tx: %w", err)
	}

	txids := s.db.Model(&Transaction{}).Select("txid")
	if err := s.db.Where("txid NOT IN (?)", txids).Delete(&TxInput{}).Error; err != nil {
		return fmt.Errorf("purge orphaned inputs: %w", err)
	}
	if err := s.db.Where("txid NOT IN (?)", txids).Delete(&TxOutput{}).Error; err != nil {
		return fmt.Errorf("purge orphaned outputs: %w", err)
	}

	if err := s.db.Where("added_at < ?", cutoff).Delete(&RBFCandidate{}).Error; err != nil {
		return fmt.Errorf("purge rbf candidates: %w", err)
	}
	if err := s.db.Where("detected_at < ?", cutoff).Delete(&Replacement{}).Error; err != nil {
		return fmt.Errorf("purge replacements: %w", err)
	}

	return nil
}
