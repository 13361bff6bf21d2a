package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
)

// spreadsheet builds an in-memory workbook whose first sheet holds rows.
func spreadsheet(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestUserService_Create(t *testing.T) {
	w := newWorld(t)
	svc := NewUserService(w.repo, zap.NewNop())
	ctx := context.Background()

	resp, err := svc.Create(ctx, &dto.CreateUserRequest{
		Name:          "Rose Ngono",
		Email:         "Rose.Ngono@ENSPY.cm",
		Password:      "long-enough",
		Role:          "teacher",
		AcademicTitle: "professeur",
		DepartmentID:  w.git.DepartmentID,
	}, w.gitAdmin.UserID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Email != "rose.ngono@enspy.cm" || !resp.CanPreside || resp.TitleLabel != "Professeur" {
		t.Errorf("unexpected user %+v", resp)
	}

	cases := []struct {
		name   string
		req    dto.CreateUserRequest
		caller string
		want   error
	}{
		{"title on a student", dto.CreateUserRequest{Name: "S", Email: "s@enspy.cm", Role: "student", AcademicTitle: "professeur"}, w.gitAdmin.UserID, ErrTitleReserved},
		{"existing email", dto.CreateUserRequest{Name: "J", Email: "JEAN.DUPONT@enspy.cm", Role: "teacher", DepartmentID: w.git.DepartmentID}, w.gitAdmin.UserID, ErrEmailExists},
		{"other department", dto.CreateUserRequest{Name: "G", Email: "g@enspy.cm", Role: "student", DepartmentID: w.gesi.DepartmentID}, w.gitAdmin.UserID, ErrUserForbidden},
		{"general account by department admin", dto.CreateUserRequest{Name: "A", Email: "a@enspy.cm", Role: "admin"}, w.gitAdmin.UserID, ErrUserForbidden},
		{"unknown department", dto.CreateUserRequest{Name: "U", Email: "u@enspy.cm", Role: "student", DepartmentID: "missing"}, w.generalAdmin.UserID, ErrDepartmentNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			req.Password = "long-enough"
			if _, err := svc.Create(ctx, &req, tc.caller); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUserService_List(t *testing.T) {
	w := newWorld(t)
	svc := NewUserService(w.repo, zap.NewNop())

	profs, total, err := svc.List(context.Background(), &dto.UserListRequest{Role: "teacher", AcademicTitle: "professeur", DepartmentID: w.git.DepartmentID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || profs[0].Name != "Claire Martin" || profs[1].Name != "Jean Dupont" {
		t.Errorf("expected the two GIT professeurs by name, got %d %+v", total, profs)
	}

	if _, err := svc.GetByID(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ParseImportFile(t *testing.T) {
	svc := NewUserService(nil, zap.NewNop())

	rows, err := svc.ParseImportFile(spreadsheet(t,
		[]interface{}{"Nom", "E-mail", "Rôle", "Grade", "Filière", "Matricule"},
		[]interface{}{"Eva Nkoulou", "EVA@enspy.cm", "Student", "", "git", "21P001"},
		[]interface{}{"", "", "", "", "", ""},
		[]interface{}{"Rose Ngono", "rose@enspy.cm", "teacher", "Maitre_Conference", "gesi", ""},
	))
	if err != nil {
		t.Fatalf("ParseImportFile: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("blank rows are skipped, expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.Row != 2 || first.Email != "eva@enspy.cm" || first.Role != "student" || first.DepartmentCode != "GIT" || first.Matricule != "21P001" {
		t.Errorf("unexpected first row %+v", first)
	}
	if rows[1].Row != 4 || rows[1].AcademicTitle != string(model.TitleMaitreConference) {
		t.Errorf("unexpected second row %+v", rows[1])
	}

	if _, err := svc.ParseImportFile(spreadsheet(t, []interface{}{"name", "email"}, []interface{}{"A", "a@enspy.cm"})); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("expected ErrImportBadHeader, got %v", err)
	}
	if _, err := svc.ParseImportFile(spreadsheet(t, []interface{}{"name", "email", "role"})); !errors.Is(err, ErrImportNoData) {
		t.Errorf("expected ErrImportNoData, got %v", err)
	}
	if _, err := svc.ParseImportFile(strings.NewReader("not a workbook")); !errors.Is(err, ErrImportUnreadable) {
		t.Errorf("expected ErrImportUnreadable, got %v", err)
	}
}

func TestUserService_ImportUsers(t *testing.T) {
	w := newWorld(t)
	svc := NewUserService(w.repo, zap.NewNop())
	ctx := context.Background()

	rows := []ImportUserRow{
		{Row: 2, Name: "Eva Nkoulou", Email: "eva@enspy.cm", Role: "student", DepartmentCode: "GIT", Matricule: "21P001"},
		{Row: 3, Name: "Rose Ngono", Email: "rose@enspy.cm", Role: "teacher", AcademicTitle: "professeur", DepartmentCode: "GIT"},
		{Row: 4, Name: "Eva Again", Email: "eva@enspy.cm", Role: "student", DepartmentCode: "GIT"},
		{Row: 5, Name: "Jean Dupont", Email: "jean.dupont@enspy.cm", Role: "teacher", DepartmentCode: "GIT"},
		{Row: 6, Name: "Other", Email: "other@enspy.cm", Role: "student", DepartmentCode: "GESI"},
		{Row: 7, Name: "Nowhere", Email: "nowhere@enspy.cm", Role: "student", DepartmentCode: "GC"},
		{Row: 8, Name: "Boss", Email: "boss@enspy.cm", Role: "dean", DepartmentCode: "GIT"},
		{Row: 9, Name: "Titled", Email: "titled@enspy.cm", Role: "student", AcademicTitle: "professeur", DepartmentCode: "GIT"},
		{Row: 10, Email: "anon@enspy.cm", Role: "student"},
	}

	resp, err := svc.ImportUsers(ctx, rows, w.gitAdmin.UserID)
	if err != nil {
		t.Fatalf("ImportUsers: %v", err)
	}
	if resp.Total != 9 || resp.Success != 2 || resp.Failed != 7 {
		t.Fatalf("expected 2 created and 7 rejected, got %+v", resp)
	}

	wantRejected := []int{4, 5, 6, 7, 8, 9, 10}
	for i, e := range resp.Errors {
		if e.Row != wantRejected[i] {
			t.Errorf("rejection %d: expected row %d, got %d (%s)", i, wantRejected[i], e.Row, e.Reason)
		}
	}

	for _, c := range resp.Created {
		if len(c.TempPassword) != tempPasswordLength {
			t.Errorf("row %d: temporary password length %d", c.Row, len(c.TempPassword))
		}
	}
	rose, err := w.repo.User.GetByEmail(ctx, "rose@enspy.cm")
	if err != nil {
		t.Fatalf("imported teacher not stored: %v", err)
	}
	if !rose.CanPresideJury() || rose.DepartmentID == nil || *rose.DepartmentID != w.git.DepartmentID {
		t.Errorf("unexpected imported teacher %+v", rose)
	}
}

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		p, err := generateTempPassword(4)
		if err != nil {
			t.Fatalf("generateTempPassword: %v", err)
		}
		if len(p) != 8 {
			t.Fatalf("short lengths are raised to 8, got %q", p)
		}
		if !strings.ContainsAny(p, "23456789") || !strings.ContainsAny(p, "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ") {
			t.Errorf("password needs a letter and a digit: %q", p)
		}
	}
}
