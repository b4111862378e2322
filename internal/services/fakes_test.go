package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// memoryRepository is an in-memory Repository. Reads return copies so callers
// cannot alias stored rows. Transactions run inline without rollback.
type memoryRepository struct {
	mu sync.Mutex

	nextID         uint
	users          map[uint]*models.User
	tokens         map[string]*models.AuthToken
	courses        map[uint]*models.Course
	students       map[uint]map[uint]bool
	questions      map[uint]*models.Question
	quizzes        map[uint]*models.Quiz
	questionPapers map[uint]*models.QuestionPaper
	questionSets   map[uint]*models.QuestionSet
	answerPapers   map[uint]*models.AnswerPaper
	answers        map[uint]*models.Answer
	uploads        []*models.AssignmentUpload
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		users:          make(map[uint]*models.User),
		tokens:         make(map[string]*models.AuthToken),
		courses:        make(map[uint]*models.Course),
		students:       make(map[uint]map[uint]bool),
		questions:      make(map[uint]*models.Question),
		quizzes:        make(map[uint]*models.Quiz),
		questionPapers: make(map[uint]*models.QuestionPaper),
		questionSets:   make(map[uint]*models.QuestionSet),
		answerPapers:   make(map[uint]*models.AnswerPaper),
		answers:        make(map[uint]*models.Answer),
	}
}

func (r *memoryRepository) id() uint {
	r.nextID++
	return r.nextID
}

func (r *memoryRepository) User() repositories.UserRepository                 { return memUsers{r} }
func (r *memoryRepository) AuthToken() repositories.AuthTokenRepository       { return memTokens{r} }
func (r *memoryRepository) Course() repositories.CourseRepository             { return memCourses{r} }
func (r *memoryRepository) Question() repositories.QuestionRepository         { return memQuestions{r} }
func (r *memoryRepository) Quiz() repositories.QuizRepository                 { return memQuizzes{r} }
func (r *memoryRepository) QuestionPaper() repositories.QuestionPaperRepository {
	return memQuestionPapers{r}
}
func (r *memoryRepository) QuestionSet() repositories.QuestionSetRepository { return memQuestionSets{r} }
func (r *memoryRepository) AnswerPaper() repositories.AnswerPaperRepository { return memAnswerPapers{r} }
func (r *memoryRepository) Answer() repositories.AnswerRepository           { return memAnswers{r} }
func (r *memoryRepository) AssignmentUpload() repositories.AssignmentUploadRepository {
	return memUploads{r}
}

func (r *memoryRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// ===== USERS =====

type memUsers struct{ r *memoryRepository }

func (m memUsers) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, u := range m.r.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = m.r.id()
	if user.Profile != nil {
		user.Profile.ID = m.r.id()
		user.Profile.UserID = user.ID
	}
	cp := *user
	m.r.users[user.ID] = &cp
	return nil
}

func (m memUsers) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	u, ok := m.r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, u := range m.r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memUsers) ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, tx, username)
	return err == nil, nil
}

func (m memUsers) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	cp := *user
	m.r.users[user.ID] = &cp
	return nil
}

func (m memUsers) UpdateProfile(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if u, ok := m.r.users[profile.UserID]; ok {
		cp := *profile
		u.Profile = &cp
	}
	return nil
}

// ===== TOKENS =====

type memTokens struct{ r *memoryRepository }

func (m memTokens) Create(ctx context.Context, tx *gorm.DB, token *models.AuthToken) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	cp := *token
	m.r.tokens[token.ID] = &cp
	return nil
}

func (m memTokens) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AuthToken, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	t, ok := m.r.tokens[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (m memTokens) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) (*models.AuthToken, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, t := range m.r.tokens {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memTokens) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for id, t := range m.r.tokens {
		if t.UserID == userID {
			delete(m.r.tokens, id)
		}
	}
	return nil
}

// ===== COURSES =====

type memCourses struct{ r *memoryRepository }

func (m memCourses) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	course.ID = m.r.id()
	cp := *course
	m.r.courses[course.ID] = &cp
	return nil
}

func (m memCourses) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	c, ok := m.r.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCourses) ListForStudent(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Course, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.Course
	for id, c := range m.r.courses {
		if m.r.students[id][userID] {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memCourses) IsMember(ctx context.Context, tx *gorm.DB, courseID, userID uint) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	c, ok := m.r.courses[courseID]
	if !ok {
		return false, nil
	}
	return c.CreatorID == userID || m.r.students[courseID][userID], nil
}

func (m memCourses) AddStudent(ctx context.Context, tx *gorm.DB, courseID, userID uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if m.r.students[courseID] == nil {
		m.r.students[courseID] = make(map[uint]bool)
	}
	m.r.students[courseID][userID] = true
	return nil
}

// ===== QUESTIONS =====

type memQuestions struct{ r *memoryRepository }

func (m memQuestions) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	question.ID = m.r.id()
	for i := range question.TestCases {
		question.TestCases[i].ID = m.r.id()
		question.TestCases[i].QuestionID = question.ID
	}
	cp := *question
	m.r.questions[question.ID] = &cp
	return nil
}

func (m memQuestions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	return &cp, nil
}

func (m memQuestions) ListByOwner(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.Question
	for _, q := range m.r.questions {
		if q.UserID == userID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (m memQuestions) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	cp := *question
	m.r.questions[question.ID] = &cp
	return nil
}

func (m memQuestions) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.questions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.r.questions, id)
	return nil
}

func (m memQuestions) CountOwned(ctx context.Context, tx *gorm.DB, ids []uint, userID uint) (int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if q, ok := m.r.questions[id]; ok && q.UserID == userID {
			n++
		}
	}
	return n, nil
}

// ===== QUIZZES =====

type memQuizzes struct{ r *memoryRepository }

func (m memQuizzes) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	quiz.ID = m.r.id()
	cp := *quiz
	m.r.quizzes[quiz.ID] = &cp
	return nil
}

func (m memQuizzes) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	q, ok := m.r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	return &cp, nil
}

func (m memQuizzes) ListByCreator(ctx context.Context, tx *gorm.DB, creatorID uint) ([]*models.Quiz, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.Quiz
	for _, q := range m.r.quizzes {
		if q.CreatorID == creatorID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memQuizzes) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	cp := *quiz
	m.r.quizzes[quiz.ID] = &cp
	return nil
}

func (m memQuizzes) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	delete(m.r.quizzes, id)
	return nil
}

// ===== QUESTION PAPERS =====

type memQuestionPapers struct{ r *memoryRepository }

// hydrate must be called with the lock held.
func (m memQuestionPapers) hydrate(qp *models.QuestionPaper) *models.QuestionPaper {
	cp := *qp
	if quiz, ok := m.r.quizzes[qp.QuizID]; ok {
		q := *quiz
		cp.Quiz = &q
	}
	cp.FixedQuestions = nil
	for _, ref := range qp.FixedQuestions {
		if q, ok := m.r.questions[ref.ID]; ok {
			cp.FixedQuestions = append(cp.FixedQuestions, *q)
		}
	}
	cp.RandomQuestions = nil
	for _, ref := range qp.RandomQuestions {
		set, ok := m.r.questionSets[ref.ID]
		if !ok {
			continue
		}
		s := *set
		s.Questions = nil
		for _, qref := range set.Questions {
			if q, ok := m.r.questions[qref.ID]; ok && q.Active {
				s.Questions = append(s.Questions, *q)
			}
		}
		cp.RandomQuestions = append(cp.RandomQuestions, s)
	}
	return &cp
}

func (m memQuestionPapers) Create(ctx context.Context, tx *gorm.DB, paper *models.QuestionPaper) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, qp := range m.r.questionPapers {
		if qp.QuizID == paper.QuizID {
			return gorm.ErrDuplicatedKey
		}
	}
	paper.ID = m.r.id()
	cp := *paper
	m.r.questionPapers[paper.ID] = &cp
	return nil
}

func (m memQuestionPapers) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionPaper, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	qp, ok := m.r.questionPapers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.hydrate(qp), nil
}

func (m memQuestionPapers) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (*models.QuestionPaper, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, qp := range m.r.questionPapers {
		if qp.QuizID == quizID {
			return m.hydrate(qp), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memQuestionPapers) ExistsForQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (bool, error) {
	_, err := m.GetByQuiz(ctx, tx, quizID)
	return err == nil, nil
}

func (m memQuestionPapers) ListByCreator(ctx context.Context, tx *gorm.DB, creatorID uint) ([]*models.QuestionPaper, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.QuestionPaper
	for _, qp := range m.r.questionPapers {
		if quiz, ok := m.r.quizzes[qp.QuizID]; ok && quiz.CreatorID == creatorID {
			out = append(out, m.hydrate(qp))
		}
	}
	return out, nil
}

func (m memQuestionPapers) Update(ctx context.Context, tx *gorm.DB, paper *models.QuestionPaper) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	cp := *paper
	cp.Quiz = nil
	m.r.questionPapers[paper.ID] = &cp
	return nil
}

func (m memQuestionPapers) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	delete(m.r.questionPapers, id)
	return nil
}

// ===== QUESTION SETS =====

type memQuestionSets struct{ r *memoryRepository }

func (m memQuestionSets) Create(ctx context.Context, tx *gorm.DB, set *models.QuestionSet) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	set.ID = m.r.id()
	cp := *set
	m.r.questionSets[set.ID] = &cp
	return nil
}

func (m memQuestionSets) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.QuestionSet, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []models.QuestionSet
	for _, id := range ids {
		if s, ok := m.r.questionSets[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m memQuestionSets) CountOwned(ctx context.Context, tx *gorm.DB, ids []uint, creatorID uint) (int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if s, ok := m.r.questionSets[id]; ok && s.CreatorID == creatorID {
			n++
		}
	}
	return n, nil
}

// ===== ANSWER PAPERS =====

type memAnswerPapers struct{ r *memoryRepository }

// hydrate must be called with the lock held.
func (m memAnswerPapers) hydrate(ap *models.AnswerPaper, withAnswers bool) *models.AnswerPaper {
	cp := *ap
	cp.Questions = append([]models.Question(nil), ap.Questions...)
	if qp, ok := m.r.questionPapers[ap.QuestionPaperID]; ok {
		cp.QuestionPaper = memQuestionPapers{m.r}.hydrate(qp)
	}
	cp.Answers = nil
	if withAnswers {
		for _, a := range m.r.sortedAnswers(ap.ID) {
			cp.Answers = append(cp.Answers, *a)
		}
	}
	return &cp
}

func (m memAnswerPapers) Create(ctx context.Context, tx *gorm.DB, paper *models.AnswerPaper) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, ap := range m.r.answerPapers {
		sameAttempt := ap.UserID == paper.UserID && ap.QuestionPaperID == paper.QuestionPaperID && ap.CourseID == paper.CourseID
		if sameAttempt && (ap.AttemptNumber == paper.AttemptNumber ||
			(ap.Status == models.AnswerPaperInProgress && paper.Status == models.AnswerPaperInProgress)) {
			return gorm.ErrDuplicatedKey
		}
	}
	paper.ID = m.r.id()
	cp := *paper
	cp.QuestionPaper = nil
	m.r.answerPapers[paper.ID] = &cp
	return nil
}

func (m memAnswerPapers) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AnswerPaper, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	ap, ok := m.r.answerPapers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.hydrate(ap, false), nil
}

func (m memAnswerPapers) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.AnswerPaper, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	ap, ok := m.r.answerPapers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.hydrate(ap, true), nil
}

func (m memAnswerPapers) matching(userID, questionPaperID, courseID uint) []*models.AnswerPaper {
	var out []*models.AnswerPaper
	for _, ap := range m.r.answerPapers {
		if ap.UserID == userID && ap.QuestionPaperID == questionPaperID && ap.CourseID == courseID {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out
}

func (m memAnswerPapers) GetInProgress(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (*models.AnswerPaper, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, ap := range m.matching(userID, questionPaperID, courseID) {
		if ap.Status == models.AnswerPaperInProgress {
			return m.hydrate(ap, false), nil
		}
	}
	return nil, nil
}

func (m memAnswerPapers) GetLastAttempt(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (*models.AnswerPaper, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	all := m.matching(userID, questionPaperID, courseID)
	if len(all) == 0 {
		return nil, nil
	}
	return m.hydrate(all[len(all)-1], false), nil
}

func (m memAnswerPapers) CountAttempts(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	return int64(len(m.matching(userID, questionPaperID, courseID))), nil
}

func (m memAnswerPapers) UpdateResult(ctx context.Context, tx *gorm.DB, paper *models.AnswerPaper) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	ap, ok := m.r.answerPapers[paper.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ap.Status = paper.Status
	ap.EndTime = paper.EndTime
	ap.MarksObtained = paper.MarksObtained
	ap.Percent = paper.Percent
	ap.Passed = paper.Passed
	return nil
}

func (m memAnswerPapers) Complete(ctx context.Context, tx *gorm.DB, id uint, end time.Time) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	ap, ok := m.r.answerPapers[id]
	if !ok || ap.Status != models.AnswerPaperInProgress {
		return false, nil
	}
	ap.Status = models.AnswerPaperCompleted
	ap.EndTime = &end
	return true, nil
}

func (m memAnswerPapers) List(ctx context.Context, tx *gorm.DB, creatorID uint, filters repositories.AnswerPaperFilters) ([]*models.AnswerPaper, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.AnswerPaper
	for _, ap := range m.r.answerPapers {
		h := m.hydrate(ap, false)
		if h.QuestionPaper != nil && h.QuestionPaper.Quiz != nil && h.QuestionPaper.Quiz.CreatorID == creatorID {
			out = append(out, h)
		}
	}
	return out, int64(len(out)), nil
}

func (m memAnswerPapers) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.AnswerPaper, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.AnswerPaper
	for _, ap := range m.r.answerPapers {
		if qp, ok := m.r.questionPapers[ap.QuestionPaperID]; ok && qp.QuizID == quizID {
			h := m.hydrate(ap, false)
			if u, ok := m.r.users[ap.UserID]; ok {
				cp := *u
				h.User = &cp
			}
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== ANSWERS =====

type memAnswers struct{ r *memoryRepository }

// sortedAnswers must be called with the lock held.
func (r *memoryRepository) sortedAnswers(answerPaperID uint) []*models.Answer {
	var out []*models.Answer
	for _, a := range r.answers {
		if a.AnswerPaperID == answerPaperID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m memAnswers) Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	answer.ID = m.r.id()
	cp := *answer
	m.r.answers[answer.ID] = &cp
	return nil
}

func (m memAnswers) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Answer, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.answers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	if q, ok := m.r.questions[a.QuestionID]; ok {
		qc := *q
		cp.Question = &qc
	}
	return &cp, nil
}

func (m memAnswers) ListByAnswerPaper(ctx context.Context, tx *gorm.DB, answerPaperID uint) ([]*models.Answer, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	return m.r.sortedAnswers(answerPaperID), nil
}

func (m memAnswers) ApplyGrade(ctx context.Context, tx *gorm.DB, id uint, correct bool, marks float64, errData datatypes.JSON) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.answers[id]
	if !ok || a.GradingState != models.GradingPending {
		return false, nil
	}
	a.Correct, a.Marks, a.Error, a.GradingState = correct, marks, errData, models.GradingDone
	return true, nil
}

func (m memAnswers) SetError(ctx context.Context, tx *gorm.DB, id uint, errData datatypes.JSON) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if a, ok := m.r.answers[id]; ok {
		a.Error = errData
	}
	return nil
}

// ===== UPLOADS =====

type memUploads struct{ r *memoryRepository }

func (m memUploads) Create(ctx context.Context, tx *gorm.DB, upload *models.AssignmentUpload) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	upload.ID = m.r.id()
	cp := *upload
	m.r.uploads = append(m.r.uploads, &cp)
	return nil
}

func (m memUploads) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssignmentUpload, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, u := range m.r.uploads {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memUploads) ListFor(ctx context.Context, tx *gorm.DB, answerPaperID, questionID uint) ([]*models.AssignmentUpload, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.AssignmentUpload
	for _, u := range m.r.uploads {
		if u.AnswerPaperID == answerPaperID && u.QuestionID == questionID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ===== HOOKS =====

// hookedRepository intercepts answer paper writes so tests can interleave
// competing work at a precise point.
type hookedRepository struct {
	*memoryRepository
	onCreatePaper  func(ctx context.Context, paper *models.AnswerPaper) error
	beforeComplete func()
}

func (r *hookedRepository) AnswerPaper() repositories.AnswerPaperRepository {
	return hookedAnswerPapers{memAnswerPapers{r.memoryRepository}, r}
}

type hookedAnswerPapers struct {
	memAnswerPapers
	h *hookedRepository
}

func (p hookedAnswerPapers) Create(ctx context.Context, tx *gorm.DB, paper *models.AnswerPaper) error {
	if p.h.onCreatePaper != nil {
		return p.h.onCreatePaper(ctx, paper)
	}
	return p.memAnswerPapers.Create(ctx, tx, paper)
}

func (p hookedAnswerPapers) Complete(ctx context.Context, tx *gorm.DB, id uint, end time.Time) (bool, error) {
	if hook := p.h.beforeComplete; hook != nil {
		p.h.beforeComplete = nil
		hook()
	}
	return p.memAnswerPapers.Complete(ctx, tx, id, end)
}
