package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/database"
)

// ── user errors ──

const (
	maxImportRows      = 1000
	tempPasswordLength = 10
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email is already registered")
	ErrTitleReserved     = errors.New("only teachers may hold an academic title")
	ErrUserForbidden     = errors.New("you cannot manage users of this department")
	ErrImportNoData      = errors.New("the spreadsheet has no data rows (the first row is the header)")
	ErrImportBadHeader   = errors.New("the spreadsheet header must contain name, email and role columns")
	ErrImportTooManyRows = fmt.Errorf("the spreadsheet exceeds %d rows", maxImportRows)
	ErrImportUnreadable  = errors.New("the upload is not a readable .xlsx workbook")
)

// UserService account management.
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow one parsed spreadsheet row.
type ImportUserRow struct {
	Row            int
	Name           string
	Email          string
	Matricule      string
	Role           string
	AcademicTitle  string
	DepartmentCode string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	role := model.Role(req.Role)
	title := model.AcademicTitle(req.AcademicTitle)
	if err := checkTitle(role, title); err != nil {
		return nil, err
	}

	var deptID *string
	if req.DepartmentID != "" {
		if _, err := s.repo.Department.GetByID(ctx, req.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDepartmentNotFound
			}
			return nil, err
		}
		deptID = &req.DepartmentID
	}
	if !caller.CanManageDepartment(deptID) {
		return nil, ErrUserForbidden
	}

	email := strings.ToLower(req.Email)
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:          req.Name,
		Email:         email,
		PasswordHash:  string(hash),
		Role:          role,
		AcademicTitle: title,
		DepartmentID:  deptID,
	}
	if req.Matricule != "" {
		user.Matricule = &req.Matricule
	}
	user.Version = 1
	user.CreatedBy = &callerID
	user.UpdatedBy = &callerID

	if err := s.repo.User.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err, database.ConstraintUserEmail) {
			return nil, ErrEmailExists
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(created)
	return &resp, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("get user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, repository.UserFilter{
		Role:          model.Role(req.Role),
		AcademicTitle: model.AcademicTitle(req.AcademicTitle),
		DepartmentID:  req.DepartmentID,
		Offset:        req.GetOffset(),
		Limit:         req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── ParseImportFile ──────────────────────

// ParseImportFile reads the first sheet. Column order is free; the header
// row names the columns in English or French.
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 || colIndex["role"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		idx := colIndex[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:            i + 1,
			Name:           cell(row, "name"),
			Email:          strings.ToLower(cell(row, "email")),
			Matricule:      cell(row, "matricule"),
			Role:           strings.ToLower(cell(row, "role")),
			AcademicTitle:  strings.ToLower(cell(row, "title")),
			DepartmentCode: strings.ToUpper(cell(row, "department")),
		}
		if item.Name == "" && item.Email == "" && item.Role == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"name":       -1,
		"email":      -1,
		"matricule":  -1,
		"role":       -1,
		"title":      -1,
		"department": -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "nom":
			idx["name"] = i
		case "email", "e-mail":
			idx["email"] = i
		case "matricule":
			idx["matricule"] = i
		case "role", "rôle":
			idx["role"] = i
		case "title", "academic_title", "grade", "titre":
			idx["title"] = i
		case "department", "département", "filiere", "filière":
			idx["department"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

// ImportUsers validates every row first, then creates the valid ones in a
// single transaction; a write failure rolls the whole import back.
func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportUserResponse{
		Total:   len(rows),
		Created: []dto.ImportedUser{},
		Errors:  []dto.ImportUserError{},
	}
	reject := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	deptMap, err := s.buildDepartmentMap(ctx)
	if err != nil {
		s.logger.Error("load departments failed", zap.Error(err))
		return nil, err
	}

	type validatedRow struct {
		row      ImportUserRow
		user     *model.User
		password string
	}
	var validRows []validatedRow
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		if row.Name == "" || row.Email == "" || row.Role == "" {
			reject(row.Row, "name, email and role are required")
			continue
		}
		role := model.Role(row.Role)
		if !role.Valid() {
			reject(row.Row, fmt.Sprintf("unknown role: %s", row.Role))
			continue
		}
		title := model.AcademicTitle(row.AcademicTitle)
		if !title.Valid() {
			reject(row.Row, fmt.Sprintf("unknown academic title: %s", row.AcademicTitle))
			continue
		}
		if err := checkTitle(role, title); err != nil {
			reject(row.Row, err.Error())
			continue
		}

		var deptID *string
		if row.DepartmentCode != "" {
			dept, ok := deptMap[row.DepartmentCode]
			if !ok {
				reject(row.Row, fmt.Sprintf("unknown department: %s", row.DepartmentCode))
				continue
			}
			deptID = &dept.DepartmentID
		}
		if !caller.CanManageDepartment(deptID) {
			reject(row.Row, ErrUserForbidden.Error())
			continue
		}

		if seen[row.Email] {
			reject(row.Row, fmt.Sprintf("duplicate email in file: %s", row.Email))
			continue
		}
		if _, err := s.repo.User.GetByEmail(ctx, row.Email); err == nil {
			reject(row.Row, fmt.Sprintf("email already registered: %s", row.Email))
			continue
		}
		seen[row.Email] = true

		password, err := generateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			reject(row.Row, "password hashing failed")
			continue
		}

		user := &model.User{
			Name:          row.Name,
			Email:         row.Email,
			PasswordHash:  string(hash),
			Role:          role,
			AcademicTitle: title,
			DepartmentID:  deptID,
		}
		if row.Matricule != "" {
			m := row.Matricule
			user.Matricule = &m
		}
		user.Version = 1
		user.CreatedBy = &callerID
		user.UpdatedBy = &callerID
		validRows = append(validRows, validatedRow{row: row, user: user, password: password})
	}

	if len(validRows) == 0 {
		return resp, nil
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		for _, vr := range validRows {
			if err := tx.User.Create(ctx, vr.user); err != nil {
				s.logger.Error("import write failed, rolling back",
					zap.Int("row", vr.row.Row), zap.Error(err))
				return fmt.Errorf("row %d could not be written, the whole import was rolled back: %w", vr.row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, vr := range validRows {
		resp.Success++
		resp.Created = append(resp.Created, dto.ImportedUser{
			Row:          vr.row.Row,
			Email:        vr.user.Email,
			TempPassword: vr.password,
		})
	}
	s.logger.Info("users imported", zap.Int("created", resp.Success), zap.Int("failed", resp.Failed))
	return resp, nil
}

// ── helpers ──

func checkTitle(role model.Role, title model.AcademicTitle) error {
	if title != model.TitleNone && role != model.RoleTeacher {
		return ErrTitleReserved
	}
	return nil
}

func (s *userService) buildDepartmentMap(ctx context.Context) (map[string]*model.Department, error) {
	departments, err := s.repo.Department.List(ctx, true)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.Department, len(departments))
	for i := range departments {
		m[departments[i].Code] = &departments[i]
	}
	return m, nil
}

// generateTempPassword always contains at least one letter and one digit.
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}
	result := make([]byte, length)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
