package memory

import (
	"context"
	"sort"
	"sync"

	"pinquiz/internal/app"
	"pinquiz/internal/domain"
)

// Store is an in-memory implementation of app.Store. Transactions run one at a
// time against a copy of the state that replaces the original on success.
type Store struct {
	mu    sync.Mutex
	state *state
}

type statusKey struct {
	userID int64
	quizID int64
}

type state struct {
	nextID    int64
	users     map[int64]domain.User
	quizzes   map[int64]domain.Quiz
	questions map[int64][]domain.Question
	statuses  map[statusKey]domain.Status
}

var _ app.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{state: &state{
		users:     make(map[int64]domain.User),
		quizzes:   make(map[int64]domain.Quiz),
		questions: make(map[int64][]domain.Question),
		statuses:  make(map[statusKey]domain.Status),
	}}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &storeTx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// clone copies the maps. Question slices are shared because writes always
// replace them wholesale.
func (st *state) clone() *state {
	out := &state{
		nextID:    st.nextID,
		users:     make(map[int64]domain.User, len(st.users)),
		quizzes:   make(map[int64]domain.Quiz, len(st.quizzes)),
		questions: make(map[int64][]domain.Question, len(st.questions)),
		statuses:  make(map[statusKey]domain.Status, len(st.statuses)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.quizzes {
		out.quizzes[k] = v
	}
	for k, v := range st.questions {
		out.questions[k] = v
	}
	for k, v := range st.statuses {
		out.statuses[k] = v
	}
	return out
}

type storeTx struct {
	st *state
}

func (t *storeTx) id() int64 {
	t.st.nextID++
	return t.st.nextID
}

func (t *storeTx) PinExists(_ context.Context, pin string) (bool, error) {
	for _, q := range t.st.quizzes {
		if q.Pin == pin {
			return true, nil
		}
	}
	return false, nil
}

func (t *storeTx) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if taken, _ := t.PinExists(ctx, quiz.Pin); taken {
		return domain.ErrConflict
	}
	quiz.ID = t.id()
	row := *quiz
	row.Questions = nil
	t.st.quizzes[quiz.ID] = row
	return nil
}

func (t *storeTx) FindQuizByPin(_ context.Context, pin string, _ bool) (domain.Quiz, error) {
	for _, q := range t.st.quizzes {
		if q.Pin == pin {
			return q, nil
		}
	}
	return domain.Quiz{}, domain.ErrNotFound
}

func (t *storeTx) LoadQuestions(_ context.Context, quizID int64) ([]domain.Question, error) {
	return copyQuestions(t.st.questions[quizID]), nil
}

func (t *storeTx) DeleteQuestions(_ context.Context, quizID int64) error {
	delete(t.st.questions, quizID)
	return nil
}

func (t *storeTx) InsertQuestions(_ context.Context, quizID int64, questions []domain.Question) error {
	if _, ok := t.st.quizzes[quizID]; !ok {
		return domain.ErrNotFound
	}
	existing := t.st.questions[quizID]
	merged := make([]domain.Question, 0, len(existing)+len(questions))
	merged = append(merged, existing...)
	t.st.questions[quizID] = append(merged, copyQuestions(questions)...)
	return nil
}

func (t *storeTx) UpdateQuizName(_ context.Context, quizID int64, name string) error {
	q, ok := t.st.quizzes[quizID]
	if !ok {
		return domain.ErrNotFound
	}
	q.Name = name
	t.st.quizzes[quizID] = q
	return nil
}

func (t *storeTx) MarkPublished(_ context.Context, quizID int64) error {
	q, ok := t.st.quizzes[quizID]
	if !ok {
		return domain.ErrNotFound
	}
	q.Published = true
	t.st.quizzes[quizID] = q
	return nil
}

func (t *storeTx) DeleteQuiz(_ context.Context, quizID int64) error {
	if _, ok := t.st.quizzes[quizID]; !ok {
		return domain.ErrNotFound
	}
	delete(t.st.quizzes, quizID)
	delete(t.st.questions, quizID)
	return nil
}

func (t *storeTx) ListQuizzesByOwner(_ context.Context, ownerID int64) ([]domain.QuizSummary, error) {
	ids := make([]int64, 0)
	for id, q := range t.st.quizzes {
		if q.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.QuizSummary, 0, len(ids))
	for _, id := range ids {
		q := t.st.quizzes[id]
		out = append(out, domain.QuizSummary{Name: q.Name, Pin: q.Pin, Published: q.Published})
	}
	return out, nil
}

func (t *storeTx) FindStatus(_ context.Context, userID, quizID int64, _ bool) (domain.Status, error) {
	st, ok := t.st.statuses[statusKey{userID: userID, quizID: quizID}]
	if !ok {
		return domain.Status{}, domain.ErrNotFound
	}
	return st, nil
}

func (t *storeTx) InsertStatus(_ context.Context, status *domain.Status) error {
	key := statusKey{userID: status.UserID, quizID: status.QuizID}
	if _, ok := t.st.statuses[key]; ok {
		return domain.ErrConflict
	}
	status.ID = t.id()
	t.st.statuses[key] = *status
	return nil
}

func (t *storeTx) UpdateStatus(_ context.Context, status domain.Status) error {
	key := statusKey{userID: status.UserID, quizID: status.QuizID}
	if _, ok := t.st.statuses[key]; !ok {
		return domain.ErrNotFound
	}
	t.st.statuses[key] = status
	return nil
}

func (t *storeTx) ListStatuses(_ context.Context, quizID int64) ([]domain.LeaderboardEntry, error) {
	out := make([]domain.LeaderboardEntry, 0)
	for key, st := range t.st.statuses {
		if key.quizID != quizID {
			continue
		}
		out = append(out, domain.LeaderboardEntry{
			Username:     t.st.users[key.userID].Username,
			Grade:        st.Grade,
			AmountPlayed: st.AmountPlayed,
		})
	}
	return out, nil
}

func (t *storeTx) CreateUser(ctx context.Context, user *domain.User) error {
	if _, err := t.FindUserByUsername(ctx, user.Username); err == nil {
		return domain.ErrConflict
	}
	user.ID = t.id()
	t.st.users[user.ID] = *user
	return nil
}

func (t *storeTx) FindUserByUsername(_ context.Context, username string) (domain.User, error) {
	for _, u := range t.st.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (t *storeTx) FindUserByID(_ context.Context, id int64) (domain.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (t *storeTx) AddUserPlay(_ context.Context, userID int64, correct int) error {
	u, ok := t.st.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.QuizzesDone++
	u.CorrectAnswers += correct
	t.st.users[userID] = u
	return nil
}

func copyQuestions(in []domain.Question) []domain.Question {
	if in == nil {
		return nil
	}
	out := make([]domain.Question, len(in))
	for i, q := range in {
		out[i] = q
		out[i].Choices = append([]domain.Choice(nil), q.Choices...)
	}
	return out
}
