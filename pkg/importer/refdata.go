package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefData is a read-through snapshot of the dimension tables, seeded once at
// batch start and handed to the session writer as an explicit value. Imports
// run single-writer, so find-or-create against the maps is race-free.
type RefData struct {
	db        *gorm.DB
	programs  map[string]uuid.UUID // lower(name)
	modules   map[string]uuid.UUID // programID|lower(name)
	forms     map[string]uuid.UUID // lower(name)
	questions map[string]uuid.UUID // formID|lower(text)
}

func LoadRefData(ctx context.Context, db *gorm.DB) (*RefData, error) {
	ref := &RefData{
		db:        db,
		programs:  make(map[string]uuid.UUID),
		modules:   make(map[string]uuid.UUID),
		forms:     make(map[string]uuid.UUID),
		questions: make(map[string]uuid.UUID),
	}

	var programs []ProgramModel
	if err := db.WithContext(ctx).Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("seeding programs: %w", err)
	}
	for _, p := range programs {
		ref.programs[normKey(p.Name)] = p.ID
	}

	var modules []ProgramModuleModel
	if err := db.WithContext(ctx).Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("seeding modules: %w", err)
	}
	for _, m := range modules {
		ref.modules[scopedKey(m.ProgramID, m.Name)] = m.ID
	}

	var forms []FormModel
	if err := db.WithContext(ctx).Find(&forms).Error; err != nil {
		return nil, fmt.Errorf("seeding forms: %w", err)
	}
	for _, f := range forms {
		ref.forms[normKey(f.Name)] = f.ID
	}

	var questions []FormQuestionModel
	if err := db.WithContext(ctx).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("seeding questions: %w", err)
	}
	for _, q := range questions {
		ref.questions[scopedKey(q.FormID, q.Text)] = q.ID
	}

	return ref, nil
}

func (r *RefData) EnsureProgram(ctx context.Context, name string) (uuid.UUID, error) {
	key := normKey(name)
	if id, ok := r.programs[key]; ok {
		return id, nil
	}
	program := ProgramModel{ID: uuid.New(), Name: strings.TrimSpace(name), CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&program).Error; err != nil {
		return uuid.Nil, fmt.Errorf("inserting program %q: %w", name, err)
	}
	r.programs[key] = program.ID
	return program.ID, nil
}

// EnsureModule resolves a module scoped to its program. A newly seen module
// is appended after the program's existing sequence.
func (r *RefData) EnsureModule(ctx context.Context, programID uuid.UUID, name string) (uuid.UUID, error) {
	key := scopedKey(programID, name)
	if id, ok := r.modules[key]; ok {
		return id, nil
	}
	var next int64
	if err := r.db.WithContext(ctx).Model(&ProgramModuleModel{}).
		Where("program_id = ?", programID).Count(&next).Error; err != nil {
		return uuid.Nil, fmt.Errorf("counting modules: %w", err)
	}
	module := ProgramModuleModel{
		ID:        uuid.New(),
		ProgramID: programID,
		Name:      strings.TrimSpace(name),
		Sequence:  int(next) + 1,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&module).Error; err != nil {
		return uuid.Nil, fmt.Errorf("inserting module %q: %w", name, err)
	}
	r.modules[key] = module.ID
	return module.ID, nil
}

func (r *RefData) EnsureForm(ctx context.Context, name string) (uuid.UUID, error) {
	key := normKey(name)
	if id, ok := r.forms[key]; ok {
		return id, nil
	}
	form := FormModel{ID: uuid.New(), Name: strings.TrimSpace(name), CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&form).Error; err != nil {
		return uuid.Nil, fmt.Errorf("inserting form %q: %w", name, err)
	}
	r.forms[key] = form.ID
	return form.ID, nil
}

func (r *RefData) EnsureQuestion(ctx context.Context, formID uuid.UUID, text string) (uuid.UUID, error) {
	key := scopedKey(formID, text)
	if id, ok := r.questions[key]; ok {
		return id, nil
	}
	question := FormQuestionModel{
		ID:        uuid.New(),
		FormID:    formID,
		Text:      strings.TrimSpace(text),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&question).Error; err != nil {
		return uuid.Nil, fmt.Errorf("inserting question %q: %w", text, err)
	}
	r.questions[key] = question.ID
	return question.ID, nil
}

func normKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func scopedKey(owner uuid.UUID, name string) string {
	return owner.String() + "|" + normKey(name)
}
