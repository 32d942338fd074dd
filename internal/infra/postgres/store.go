package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"pinquiz/internal/app"
	"pinquiz/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int64  `bun:"id,pk,autoincrement"`
	Username       string `bun:"username,notnull"`
	Password       string `bun:"password,notnull"`
	QuizzesDone    int    `bun:"quizzes_done,notnull"`
	CorrectAnswers int    `bun:"correct_answers,notnull"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quiz,alias:q"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Name      string `bun:"name,notnull"`
	Pin       string `bun:"pin,notnull"`
	Published bool   `bun:"published,notnull"`
	UserID    int64  `bun:"user_id,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:choice_question,alias:cq"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Number   int    `bun:"number,notnull"`
	Question string `bun:"question,notnull"`
	Position int    `bun:"position,notnull"`
	QuizID   int64  `bun:"quiz_id,notnull"`
}

type choiceRow struct {
	bun.BaseModel `bun:"table:choice,alias:c"`

	ID               int64  `bun:"id,pk,autoincrement"`
	Text             string `bun:"text,notnull"`
	Correct          bool   `bun:"correct,notnull"`
	Position         int    `bun:"position,notnull"`
	ChoiceQuestionID int64  `bun:"choice_question_id,notnull"`
}

type statusRow struct {
	bun.BaseModel `bun:"table:status,alias:s"`

	ID           int64 `bun:"id,pk,autoincrement"`
	Grade        int   `bun:"grade,notnull"`
	AmountPlayed int   `bun:"amount_played,notnull"`
	UserID       int64 `bun:"user_id,notnull"`
	QuizID       int64 `bun:"quiz_id,notnull"`
}

type leaderboardRow struct {
	Username     string `bun:"username"`
	Grade        int    `bun:"grade"`
	AmountPlayed int    `bun:"amount_played"`
}

// Open connects bun to Postgres through pgdriver.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store implements app.Store on Postgres.
type Store struct {
	db *bun.DB
}

var _ app.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &storeTx{db: tx})
	})
}

type storeTx struct {
	db bun.IDB
}

func (t *storeTx) PinExists(ctx context.Context, pin string) (bool, error) {
	exists, err := t.db.NewSelect().Model((*quizRow)(nil)).Where("pin = ?", pin).Exists(ctx)
	if err != nil {
		return false, mapErr("pin exists", err)
	}
	return exists, nil
}

func (t *storeTx) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	row := quizRow{Name: quiz.Name, Pin: quiz.Pin, Published: quiz.Published, UserID: quiz.OwnerID}
	if _, err := t.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return mapErr("insert quiz", err)
	}
	quiz.ID = row.ID
	return nil
}

func (t *storeTx) FindQuizByPin(ctx context.Context, pin string, forUpdate bool) (domain.Quiz, error) {
	var row quizRow
	q := t.db.NewSelect().Model(&row).Where("q.pin = ?", pin)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return domain.Quiz{}, mapErr("find quiz", err)
	}
	return domain.Quiz{ID: row.ID, Name: row.Name, Pin: row.Pin, Published: row.Published, OwnerID: row.UserID}, nil
}

func (t *storeTx) LoadQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	var questions []questionRow
	err := t.db.NewSelect().Model(&questions).
		Where("quiz_id = ?", quizID).
		Order("position ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapErr("load questions", err)
	}
	if len(questions) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	var choices []choiceRow
	err = t.db.NewSelect().Model(&choices).
		Where("choice_question_id IN (?)", bun.In(ids)).
		Order("position ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapErr("load choices", err)
	}

	byQuestion := make(map[int64][]domain.Choice, len(questions))
	for _, c := range choices {
		byQuestion[c.ChoiceQuestionID] = append(byQuestion[c.ChoiceQuestionID], domain.Choice{Text: c.Text, Correct: c.Correct})
	}
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		out[i] = domain.Question{Number: q.Number, Question: q.Question, Choices: byQuestion[q.ID]}
	}
	return out, nil
}

// DeleteQuestions removes choices before their questions; nothing relies on FK cascades.
func (t *storeTx) DeleteQuestions(ctx context.Context, quizID int64) error {
	questionIDs := t.db.NewSelect().Model((*questionRow)(nil)).Column("id").Where("quiz_id = ?", quizID)
	if _, err := t.db.NewDelete().Model((*choiceRow)(nil)).Where("choice_question_id IN (?)", questionIDs).Exec(ctx); err != nil {
		return mapErr("delete choices", err)
	}
	if _, err := t.db.NewDelete().Model((*questionRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx); err != nil {
		return mapErr("delete questions", err)
	}
	return nil
}

func (t *storeTx) InsertQuestions(ctx context.Context, quizID int64, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]questionRow, len(questions))
	for i, q := range questions {
		rows[i] = questionRow{Number: q.Number, Question: q.Question, Position: i, QuizID: quizID}
	}
	if _, err := t.db.NewInsert().Model(&rows).Returning("id").Exec(ctx); err != nil {
		return mapErr("insert questions", err)
	}

	var choices []choiceRow
	for i, q := range questions {
		for j, c := range q.Choices {
			choices = append(choices, choiceRow{Text: c.Text, Correct: c.Correct, Position: j, ChoiceQuestionID: rows[i].ID})
		}
	}
	if len(choices) == 0 {
		return nil
	}
	if _, err := t.db.NewInsert().Model(&choices).Exec(ctx); err != nil {
		return mapErr("insert choices", err)
	}
	return nil
}

func (t *storeTx) UpdateQuizName(ctx context.Context, quizID int64, name string) error {
	_, err := t.db.NewUpdate().Model((*quizRow)(nil)).Set("name = ?", name).Where("id = ?", quizID).Exec(ctx)
	return mapErr("rename quiz", err)
}

func (t *storeTx) MarkPublished(ctx context.Context, quizID int64) error {
	_, err := t.db.NewUpdate().Model((*quizRow)(nil)).Set("published = TRUE").Where("id = ?", quizID).Exec(ctx)
	return mapErr("publish quiz", err)
}

func (t *storeTx) DeleteQuiz(ctx context.Context, quizID int64) error {
	res, err := t.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return mapErr("delete quiz", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *storeTx) ListQuizzesByOwner(ctx context.Context, ownerID int64) ([]domain.QuizSummary, error) {
	var rows []quizRow
	if err := t.db.NewSelect().Model(&rows).Where("user_id = ?", ownerID).Order("id ASC").Scan(ctx); err != nil {
		return nil, mapErr("list quizzes", err)
	}
	out := make([]domain.QuizSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.QuizSummary{Name: r.Name, Pin: r.Pin, Published: r.Published})
	}
	return out, nil
}

func (t *storeTx) FindStatus(ctx context.Context, userID, quizID int64, forUpdate bool) (domain.Status, error) {
	var row statusRow
	q := t.db.NewSelect().Model(&row).Where("s.user_id = ? AND s.quiz_id = ?", userID, quizID)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return domain.Status{}, mapErr("find status", err)
	}
	return statusFromRow(row), nil
}

func (t *storeTx) InsertStatus(ctx context.Context, status *domain.Status) error {
	row := statusRow{Grade: status.Grade, AmountPlayed: status.AmountPlayed, UserID: status.UserID, QuizID: status.QuizID}
	if _, err := t.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return mapErr("insert status", err)
	}
	status.ID = row.ID
	return nil
}

func (t *storeTx) UpdateStatus(ctx context.Context, status domain.Status) error {
	row := statusRow{ID: status.ID, Grade: status.Grade, AmountPlayed: status.AmountPlayed, UserID: status.UserID, QuizID: status.QuizID}
	_, err := t.db.NewUpdate().Model(&row).Column("grade", "amount_played").WherePK().Exec(ctx)
	return mapErr("update status", err)
}

func (t *storeTx) ListStatuses(ctx context.Context, quizID int64) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	err := t.db.NewSelect().
		TableExpr("status AS s").
		ColumnExpr("u.username, s.grade, s.amount_played").
		Join("JOIN users AS u ON u.id = s.user_id").
		Where("s.quiz_id = ?", quizID).
		Scan(ctx, &rows)
	if err != nil {
		return nil, mapErr("list statuses", err)
	}
	out := make([]domain.LeaderboardEntry, len(rows))
	for i, r := range rows {
		out[i] = domain.LeaderboardEntry{Username: r.Username, Grade: r.Grade, AmountPlayed: r.AmountPlayed}
	}
	return out, nil
}

func (t *storeTx) CreateUser(ctx context.Context, user *domain.User) error {
	row := userRow{Username: user.Username, Password: user.PasswordHash}
	if _, err := t.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return mapErr("insert user", err)
	}
	user.ID = row.ID
	return nil
}

func (t *storeTx) FindUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	if err := t.db.NewSelect().Model(&row).Where("u.username = ?", username).Scan(ctx); err != nil {
		return domain.User{}, mapErr("find user", err)
	}
	return userFromRow(row), nil
}

func (t *storeTx) FindUserByID(ctx context.Context, id int64) (domain.User, error) {
	var row userRow
	if err := t.db.NewSelect().Model(&row).Where("u.id = ?", id).Scan(ctx); err != nil {
		return domain.User{}, mapErr("find user", err)
	}
	return userFromRow(row), nil
}

func (t *storeTx) AddUserPlay(ctx context.Context, userID int64, correct int) error {
	res, err := t.db.NewUpdate().Model((*userRow)(nil)).
		Set("quizzes_done = quizzes_done + 1").
		Set("correct_answers = correct_answers + ?", correct).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return mapErr("update user counters", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func userFromRow(r userRow) domain.User {
	return domain.User{
		ID:             r.ID,
		Username:       r.Username,
		PasswordHash:   r.Password,
		QuizzesDone:    r.QuizzesDone,
		CorrectAnswers: r.CorrectAnswers,
	}
}

func statusFromRow(r statusRow) domain.Status {
	return domain.Status{ID: r.ID, UserID: r.UserID, QuizID: r.QuizID, Grade: r.Grade, AmountPlayed: r.AmountPlayed}
}

func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
