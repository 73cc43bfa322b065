package mockserver

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"
)

const (
	tableUsers           = "users"
	tableChats           = "chats"
	tableChatLogs        = "chat_logs"
	tableCollections     = "collections"
	tableCollectionItems = "collection_items"

	pgUniqueViolation = "23505"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists the mock backend state in the tables created by
// database.PostgresClient.Migrate.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(client *database.PostgresClient) *PostgresStore {
	return &PostgresStore{db: client.DB, now: time.Now}
}

// WithClock replaces the clock used for timestamps.
func (s *PostgresStore) WithClock(now func() time.Time) *PostgresStore {
	s.now = now
	return s
}

func errorSQLBuild(err error) error {
	return errors.NewInternalError(fmt.Errorf("failed to build sql query, %w", err))
}

// parseID rejects ids that cannot name a BIGSERIAL row.
func parseID(resource, id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.NewResourceNotFoundError(resource, id)
	}
	return n, nil
}

func formatID(id int64) models.StringOrNumber {
	return models.StringOrNumber(strconv.FormatInt(id, 10))
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, req models.SignupRequest) (models.UserProfile, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return models.UserProfile{}, errors.NewInternalError(err)
	}

	email := normalizeEmail(req.Email)
	query, args, err := psql.Insert(tableUsers).
		Columns("email", "password", "nickname", "age", "sex").
		Values(email, hash, req.Nickname, req.Age, string(req.Sex)).
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		return models.UserProfile{}, errorSQLBuild(err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return models.UserProfile{}, errors.NewSignupFailedError("email already registered")
		}
		return models.UserProfile{}, errors.NewQueryExecutionFailedError("create_user", err)
	}

	return models.UserProfile{
		UserID:   formatID(id),
		Email:    email,
		Nickname: req.Nickname,
		Age:      req.Age,
		Sex:      req.Sex,
	}, nil
}

func (s *PostgresStore) Authenticate(ctx context.Context, email, password string) (models.UserProfile, error) {
	query, args, err := psql.Select("user_id", "email", "password", "nickname", "age", "sex").
		From(tableUsers).
		Where(sq.Eq{"email": normalizeEmail(email)}).
		ToSql()
	if err != nil {
		return models.UserProfile{}, errorSQLBuild(err)
	}

	var (
		profile models.UserProfile
		id      int64
		hash    string
		sex     string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&id, &profile.Email, &hash, &profile.Nickname, &profile.Age, &sex)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, errors.NewAuthenticationError("invalid email or password")
	}
	if err != nil {
		return models.UserProfile{}, errors.NewQueryExecutionFailedError("authenticate", err)
	}
	if !checkPassword(hash, password) {
		return models.UserProfile{}, errors.NewAuthenticationError("invalid email or password")
	}

	profile.UserID = formatID(id)
	profile.Sex = models.Sex(sex)
	return profile, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (models.UserProfile, error) {
	id, err := parseID("user", userID)
	if err != nil {
		return models.UserProfile{}, err
	}

	query, args, err := psql.Select("email", "nickname", "age", "sex").
		From(tableUsers).
		Where(sq.Eq{"user_id": id}).
		ToSql()
	if err != nil {
		return models.UserProfile{}, errorSQLBuild(err)
	}

	profile := models.UserProfile{UserID: formatID(id)}
	var sex string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&profile.Email, &profile.Nickname, &profile.Age, &sex)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, errors.NewResourceNotFoundError("user", userID)
	}
	if err != nil {
		return models.UserProfile{}, errors.NewQueryExecutionFailedError("get_user", err)
	}
	profile.Sex = models.Sex(sex)
	return profile, nil
}

func (s *PostgresStore) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return []models.ChatSummary{}, nil
	}

	query, args, err := psql.Select("chat_id", "title", "updated_at").
		From(tableChats).
		Where(sq.Eq{"user_id": id}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_chats", err)
	}
	defer rows.Close()

	chats := []models.ChatSummary{}
	for rows.Next() {
		var (
			chatID    int64
			title     string
			updatedAt time.Time
		)
		if err := rows.Scan(&chatID, &title, &updatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_chats", err)
		}
		chats = append(chats, models.ChatSummary{ChatID: formatID(chatID), Title: title, UpdatedAt: timestamp(updatedAt)})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_chats", err)
	}
	return chats, nil
}

func (s *PostgresStore) GetChat(ctx context.Context, chatID string) (models.ChatDetail, error) {
	id, err := parseID("chat", chatID)
	if err != nil {
		return models.ChatDetail{}, err
	}

	query, args, err := psql.Select("title").From(tableChats).Where(sq.Eq{"chat_id": id}).ToSql()
	if err != nil {
		return models.ChatDetail{}, errorSQLBuild(err)
	}

	detail := models.ChatDetail{ChatID: formatID(id), ChatLog: []models.ChatTurn{}}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&detail.Title)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.ChatDetail{}, errors.NewResourceNotFoundError("chat", chatID)
	}
	if err != nil {
		return models.ChatDetail{}, errors.NewQueryExecutionFailedError("get_chat", err)
	}

	query, args, err = psql.Select("chat_log_id", "payload").
		From(tableChatLogs).
		Where(sq.Eq{"chat_id": id}).
		OrderBy("chat_log_id").
		ToSql()
	if err != nil {
		return models.ChatDetail{}, errorSQLBuild(err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.ChatDetail{}, errors.NewQueryExecutionFailedError("get_chat_logs", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			logID   int64
			payload []byte
			turn    models.ChatTurn
		)
		if err := rows.Scan(&logID, &payload); err != nil {
			return models.ChatDetail{}, errors.NewQueryExecutionFailedError("get_chat_logs", err)
		}
		if err := json.Unmarshal(payload, &turn); err != nil {
			return models.ChatDetail{}, errors.NewInternalError(fmt.Errorf("chat_log %d: %w", logID, err))
		}
		turn.ChatLogID = formatID(logID)
		detail.ChatLog = append(detail.ChatLog, turn)
	}
	if err := rows.Err(); err != nil {
		return models.ChatDetail{}, errors.NewQueryExecutionFailedError("get_chat_logs", err)
	}
	return detail, nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, userID, chatID string, turn models.ChatTurn) (models.ChatSummary, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return models.ChatSummary{}, err
	}
	payload, err := json.Marshal(turn)
	if err != nil {
		return models.ChatSummary{}, errors.NewInternalError(err)
	}

	now := s.now().UTC()
	var chatQuery sq.Sqlizer
	if chatID == "" {
		chatQuery = psql.Insert(tableChats).
			Columns("user_id", "title", "updated_at").
			Values(uid, chatTitle(turn.UserInput), now).
			Suffix("RETURNING chat_id, title")
	} else {
		cid, err := parseID("chat", chatID)
		if err != nil {
			return models.ChatSummary{}, err
		}
		chatQuery = psql.Update(tableChats).
			Set("updated_at", now).
			Where(sq.Eq{"chat_id": cid, "user_id": uid}).
			Suffix("RETURNING chat_id, title")
	}

	query, args, err := chatQuery.ToSql()
	if err != nil {
		return models.ChatSummary{}, errorSQLBuild(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ChatSummary{}, errors.NewDatabaseConnectionFailedError(err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		id    int64
		title string
	)
	err = tx.QueryRowContext(ctx, query, args...).Scan(&id, &title)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.ChatSummary{}, errors.NewResourceNotFoundError("chat", chatID)
	}
	if err != nil {
		return models.ChatSummary{}, errors.NewQueryExecutionFailedError("append_turn", err)
	}

	query, args, err = psql.Insert(tableChatLogs).
		Columns("chat_id", "payload").
		Values(id, payload).
		ToSql()
	if err != nil {
		return models.ChatSummary{}, errorSQLBuild(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return models.ChatSummary{}, errors.NewQueryExecutionFailedError("append_turn", err)
	}

	if err := tx.Commit(); err != nil {
		return models.ChatSummary{}, errors.NewQueryExecutionFailedError("append_turn", err)
	}

	return models.ChatSummary{ChatID: formatID(id), Title: title, UpdatedAt: timestamp(now)}, nil
}

func (s *PostgresStore) ListCarts(ctx context.Context, userID string) ([]models.CartSummary, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return []models.CartSummary{}, nil
	}

	query, args, err := psql.Select("collection_id", "collection_title").
		From(tableCollections).
		Where(sq.Eq{"user_id": id}).
		OrderBy("collection_id").
		ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_carts", err)
	}
	defer rows.Close()

	carts := []models.CartSummary{}
	for rows.Next() {
		var (
			cartID int64
			title  string
		)
		if err := rows.Scan(&cartID, &title); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_carts", err)
		}
		carts = append(carts, models.CartSummary{CollectionID: formatID(cartID), CollectionTitle: title})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_carts", err)
	}
	return carts, nil
}

func (s *PostgresStore) CreateCart(ctx context.Context, userID, title string) (models.Cart, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return models.Cart{}, err
	}

	now := s.now().UTC()
	query, args, err := psql.Insert(tableCollections).
		Columns("user_id", "collection_title", "created_at", "updated_at").
		Values(uid, title, now, now).
		Suffix("RETURNING collection_id").
		ToSql()
	if err != nil {
		return models.Cart{}, errorSQLBuild(err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return models.Cart{}, errors.NewQueryExecutionFailedError("create_cart", err)
	}

	return models.Cart{
		CollectionID:    formatID(id),
		CollectionTitle: title,
		UserID:          formatID(uid),
		CreatedAt:       timestamp(now),
		UpdatedAt:       timestamp(now),
		Items:           []models.CartItem{},
	}, nil
}

func (s *PostgresStore) GetCart(ctx context.Context, cartID string) (models.Cart, error) {
	id, err := parseID("collection", cartID)
	if err != nil {
		return models.Cart{}, err
	}

	query, args, err := psql.Select("collection_title", "user_id", "created_at", "updated_at").
		From(tableCollections).
		Where(sq.Eq{"collection_id": id}).
		ToSql()
	if err != nil {
		return models.Cart{}, errorSQLBuild(err)
	}

	var (
		cart                 = models.Cart{CollectionID: formatID(id), Items: []models.CartItem{}}
		userID               int64
		createdAt, updatedAt time.Time
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&cart.CollectionTitle, &userID, &createdAt, &updatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.Cart{}, errors.NewResourceNotFoundError("collection", cartID)
	}
	if err != nil {
		return models.Cart{}, errors.NewQueryExecutionFailedError("get_cart", err)
	}
	cart.UserID = formatID(userID)
	cart.CreatedAt = timestamp(createdAt)
	cart.UpdatedAt = timestamp(updatedAt)

	query, args, err = psql.Select("item_id", "product", "created_at").
		From(tableCollectionItems).
		Where(sq.Eq{"collection_id": id}).
		OrderBy("item_id").
		ToSql()
	if err != nil {
		return models.Cart{}, errorSQLBuild(err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.Cart{}, errors.NewQueryExecutionFailedError("get_cart_items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID  int64
			product []byte
			created time.Time
			item    models.CartItem
		)
		if err := rows.Scan(&itemID, &product, &created); err != nil {
			return models.Cart{}, errors.NewQueryExecutionFailedError("get_cart_items", err)
		}
		if err := json.Unmarshal(product, &item); err != nil {
			return models.Cart{}, errors.NewInternalError(fmt.Errorf("item %d: %w", itemID, err))
		}
		item.ItemID = formatID(itemID)
		item.CreatedAt = timestamp(created)
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return models.Cart{}, errors.NewQueryExecutionFailedError("get_cart_items", err)
	}
	return cart, nil
}

func (s *PostgresStore) AddItem(ctx context.Context, cartID string, item models.CartItem) (models.CartItem, error) {
	id, err := parseID("collection", cartID)
	if err != nil {
		return models.CartItem{}, err
	}
	item.ItemID = ""
	item.CreatedAt = ""
	product, err := json.Marshal(item)
	if err != nil {
		return models.CartItem{}, errors.NewInternalError(err)
	}

	now := s.now().UTC()
	touch, args, err := psql.Update(tableCollections).
		Set("updated_at", now).
		Where(sq.Eq{"collection_id": id}).
		ToSql()
	if err != nil {
		return models.CartItem{}, errorSQLBuild(err)
	}
	res, err := s.db.ExecContext(ctx, touch, args...)
	if err != nil {
		return models.CartItem{}, errors.NewQueryExecutionFailedError("add_item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.CartItem{}, errors.NewResourceNotFoundError("collection", cartID)
	}

	query, args, err := psql.Insert(tableCollectionItems).
		Columns("collection_id", "product", "created_at").
		Values(id, product, now).
		Suffix("RETURNING item_id").
		ToSql()
	if err != nil {
		return models.CartItem{}, errorSQLBuild(err)
	}

	var itemID int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&itemID); err != nil {
		return models.CartItem{}, errors.NewQueryExecutionFailedError("add_item", err)
	}
	item.ItemID = formatID(itemID)
	item.CreatedAt = timestamp(now)
	return item, nil
}

func (s *PostgresStore) RemoveItem(ctx context.Context, cartID, itemID string) error {
	cid, err := parseID("collection", cartID)
	if err != nil {
		return err
	}
	iid, err := parseID("item", itemID)
	if err != nil {
		return err
	}

	query, args, err := psql.Delete(tableCollectionItems).
		Where(sq.Eq{"collection_id": cid, "item_id": iid}).
		ToSql()
	if err != nil {
		return errorSQLBuild(err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewQueryExecutionFailedError("remove_item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewResourceNotFoundError("item", itemID)
	}
	return nil
}

func (s *PostgresStore) DeleteCart(ctx context.Context, cartID string) error {
	id, err := parseID("collection", cartID)
	if err != nil {
		return err
	}

	query, args, err := psql.Delete(tableCollections).Where(sq.Eq{"collection_id": id}).ToSql()
	if err != nil {
		return errorSQLBuild(err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete_cart", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewResourceNotFoundError("collection", cartID)
	}
	return nil
}
