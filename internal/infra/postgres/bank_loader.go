package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"gameday-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader reads the static fallback question bank from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.BankQuestion, error) {
	rows, err := l.pool.Query(ctx, `SELECT text, options, correct_index FROM trivia_bank ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var bank []domain.BankQuestion
	for rows.Next() {
		var (
			text         string
			rawOptions   []byte
			correctIndex int
		)
		if err := rows.Scan(&text, &rawOptions, &correctIndex); err != nil {
			return nil, fmt.Errorf("scan bank row: %w", err)
		}
		var options []string
		if err := json.Unmarshal(rawOptions, &options); err != nil {
			return nil, fmt.Errorf("decode bank options: %w", err)
		}
		bank = append(bank, domain.BankQuestion{
			Text:         text,
			Options:      options,
			CorrectIndex: correctIndex,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bank: %w", err)
	}
	return bank, nil
}
