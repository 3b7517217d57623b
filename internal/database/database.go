package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"bot-anuncios/internal/models"
	"bot-anuncios/internal/store"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var _ store.Store = (*DB)(nil)

// DB encapsula a conexão com o banco de dados
type DB struct {
	conn   *sql.DB
	driver string
}

// New abre o banco e cria as tabelas. driver é "sqlite3" ou "postgres";
// dsn é o caminho do arquivo (ou ":memory:") ou a URL de conexão.
func New(driver, dsn string) (*DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("driver de banco desconhecido: %s", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// uma conexão só: evita "database is locked" e mantém o mesmo banco em :memory:
		conn.SetMaxOpenConns(1)
	} else {
		for i := 0; i < 10; i++ {
			if err = conn.Ping(); err == nil {
				break
			}
			slog.Warn("banco indisponível, tentando novamente", "attempt", i+1, "error", err)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("postgres: ping falhou: %w", err)
		}
	}

	db := &DB{conn: conn, driver: driver}

	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("banco de dados inicializado com sucesso", "driver", driver)
	return db, nil
}

// Close fecha a conexão com o banco de dados
func (db *DB) Close() error {
	return db.conn.Close()
}

// init cria as tabelas necessárias
func (db *DB) init() error {
	idType, timeType := "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME"
	if db.driver == DriverPostgres {
		idType, timeType = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	}

	createTablesSQL := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id ` + idType + `,
			user_id BIGINT NOT NULL,
			query TEXT NOT NULL,
			filters TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at ` + timeType + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id ` + idType + `,
			search_id BIGINT NOT NULL REFERENCES searches(id),
			title TEXT NOT NULL,
			price TEXT NOT NULL,
			item_condition TEXT,
			location TEXT,
			image_url TEXT,
			listing_url TEXT NOT NULL,
			marketplace TEXT NOT NULL,
			posted_at ` + timeType + `,
			seen BOOLEAN NOT NULL DEFAULT FALSE,
			created_at ` + timeType + ` NOT NULL,
			UNIQUE (search_id, listing_url)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id ` + idType + `,
			user_id BIGINT NOT NULL,
			search_id BIGINT NOT NULL,
			listing_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at ` + timeType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_user ON searches(user_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read)`,
	}

	for _, stmt := range createTablesSQL {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("erro ao criar tabelas: %w", err)
		}
	}
	return nil
}

// rebind troca os placeholders "?" por "$1", "$2"... no postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.queryRowOn(ctx, db.conn, query, args...)
}

// rowQuerier é satisfeito por *sql.DB e *sql.Tx
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (db *DB) queryRowOn(ctx context.Context, q rowQuerier, query string, args ...interface{}) *sql.Row {
	return q.QueryRowContext(ctx, db.rebind(query), args...)
}

// affectedOrNotFound converte "nenhuma linha alterada" em ErrNotFound
func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateSearch grava uma busca salva
func (db *DB) CreateSearch(ctx context.Context, s models.SavedSearch) (models.SavedSearch, error) {
	var filters sql.NullString
	if s.Filters != nil {
		data, err := json.Marshal(s.Filters)
		if err != nil {
			return models.SavedSearch{}, err
		}
		filters = sql.NullString{String: string(data), Valid: true}
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	err := db.queryRow(ctx,
		"INSERT INTO searches (user_id, query, filters, active, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id",
		s.UserID, s.Query, filters, s.Active, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return models.SavedSearch{}, err
	}
	return s, nil
}

const searchColumns = "id, user_id, query, filters, active, created_at"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSearch(row scanner) (models.SavedSearch, error) {
	var s models.SavedSearch
	var filters sql.NullString
	if err := row.Scan(&s.ID, &s.UserID, &s.Query, &filters, &s.Active, &s.CreatedAt); err != nil {
		return models.SavedSearch{}, err
	}
	if filters.Valid && filters.String != "" {
		s.Filters = &models.Filter{}
		if err := json.Unmarshal([]byte(filters.String), s.Filters); err != nil {
			return models.SavedSearch{}, fmt.Errorf("filtro gravado inválido na busca %d: %w", s.ID, err)
		}
	}
	return s, nil
}

// GetSearch retorna uma busca pelo ID
func (db *DB) GetSearch(ctx context.Context, id int64) (models.SavedSearch, error) {
	s, err := scanSearch(db.queryRow(ctx, "SELECT "+searchColumns+" FROM searches WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SavedSearch{}, models.ErrNotFound
	}
	return s, err
}

// ListSavedSearches retorna as buscas de um usuário
func (db *DB) ListSavedSearches(ctx context.Context, userID int64, activeOnly bool) ([]models.SavedSearch, error) {
	q := "SELECT " + searchColumns + " FROM searches WHERE user_id = ?"
	if activeOnly {
		q += " AND active = TRUE"
	}
	rows, err := db.query(ctx, q+" ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []models.SavedSearch
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}

// SetSearchActive ativa ou desativa uma busca
func (db *DB) SetSearchActive(ctx context.Context, id int64, active bool) error {
	return affectedOrNotFound(db.exec(ctx, "UPDATE searches SET active = ? WHERE id = ?", active, id))
}

// ListActiveUserIDs retorna os usuários com buscas ativas
func (db *DB) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.query(ctx, "SELECT DISTINCT user_id FROM searches WHERE active = TRUE ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateListing grava um anúncio na busca. URL repetida retorna ErrDuplicateListing.
func (db *DB) CreateListing(ctx context.Context, searchID int64, l models.Listing) (models.Listing, error) {
	return db.insertListing(ctx, db.conn, searchID, l)
}

// CreateListingWithNotification grava o anúncio e sua notificação na mesma transação
func (db *DB) CreateListingWithNotification(ctx context.Context, searchID int64, l models.Listing, notify func(models.Listing) models.Notification) (models.Listing, models.Notification, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Listing{}, models.Notification{}, err
	}
	defer tx.Rollback()

	created, err := db.insertListing(ctx, tx, searchID, l)
	if err != nil {
		return models.Listing{}, models.Notification{}, err
	}
	n, err := db.insertNotification(ctx, tx, notify(created))
	if err != nil {
		return models.Listing{}, models.Notification{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Listing{}, models.Notification{}, err
	}
	return created, n, nil
}

func (db *DB) insertListing(ctx context.Context, q rowQuerier, searchID int64, l models.Listing) (models.Listing, error) {
	var exists int
	err := db.queryRowOn(ctx, q, "SELECT 1 FROM searches WHERE id = ?", searchID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, models.ErrNotFound
	}
	if err != nil {
		return models.Listing{}, err
	}

	var postedAt sql.NullTime
	if !l.PostedAt.IsZero() {
		postedAt = sql.NullTime{Time: l.PostedAt.UTC(), Valid: true}
	}
	l.SearchID = searchID
	l.Seen = false
	l.CreatedAt = time.Now().UTC()

	err = db.queryRowOn(ctx, q,
		`INSERT INTO listings (search_id, title, price, item_condition, location, image_url, listing_url, marketplace, posted_at, seen, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?)
		ON CONFLICT (search_id, listing_url) DO NOTHING
		RETURNING id`,
		searchID, l.Title, l.Price, l.Condition, l.Location, l.ImageURL, l.ListingURL, string(l.Marketplace), postedAt, l.CreatedAt,
	).Scan(&l.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, models.ErrDuplicateListing
	}
	if err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

// ListListingsBySearch retorna os anúncios registrados para uma busca
func (db *DB) ListListingsBySearch(ctx context.Context, searchID int64) ([]models.Listing, error) {
	rows, err := db.query(ctx,
		`SELECT id, search_id, title, price, item_condition, location, image_url, listing_url, marketplace, posted_at, seen, created_at
		FROM listings WHERE search_id = ? ORDER BY id`,
		searchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var condition, location, imageURL sql.NullString
		var marketplace string
		var postedAt sql.NullTime
		err := rows.Scan(&l.ID, &l.SearchID, &l.Title, &l.Price, &condition, &location, &imageURL, &l.ListingURL, &marketplace, &postedAt, &l.Seen, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		l.Condition = condition.String
		l.Location = location.String
		l.ImageURL = imageURL.String
		l.Marketplace = models.Marketplace(marketplace)
		if postedAt.Valid {
			l.PostedAt = postedAt.Time
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// MarkListingSeen marca um anúncio como visto
func (db *DB) MarkListingSeen(ctx context.Context, id int64) error {
	return affectedOrNotFound(db.exec(ctx, "UPDATE listings SET seen = TRUE WHERE id = ?", id))
}

// CreateNotification grava uma notificação
func (db *DB) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	return db.insertNotification(ctx, db.conn, n)
}

func (db *DB) insertNotification(ctx context.Context, q rowQuerier, n models.Notification) (models.Notification, error) {
	n.Read = false
	n.CreatedAt = time.Now().UTC()

	err := db.queryRowOn(ctx, q,
		"INSERT INTO notifications (user_id, search_id, listing_id, kind, message, is_read, created_at) VALUES (?, ?, ?, ?, ?, FALSE, ?) RETURNING id",
		n.UserID, n.SearchID, n.ListingID, string(n.Kind), n.Message, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// ListNotifications retorna as notificações de um usuário, mais recentes primeiro
func (db *DB) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	q := "SELECT id, user_id, search_id, listing_id, kind, message, is_read, created_at FROM notifications WHERE user_id = ?"
	if unreadOnly {
		q += " AND is_read = FALSE"
	}
	rows, err := db.query(ctx, q+" ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &n.SearchID, &n.ListingID, &kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Kind = models.NotificationKind(kind)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marca uma notificação como lida
func (db *DB) MarkNotificationRead(ctx context.Context, id int64) error {
	return affectedOrNotFound(db.exec(ctx, "UPDATE notifications SET is_read = TRUE WHERE id = ?", id))
}

// MarkAllNotificationsRead marca todas as notificações do usuário como lidas
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	res, err := db.exec(ctx, "UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE", userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
