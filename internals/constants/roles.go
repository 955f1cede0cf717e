package constants

import "fmt"

const (
	RoleUser    = "user"
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleDKM     = "dkm"
	RoleAdmin   = "admin"
	RoleOwner   = "owner"
)

// Template pesan error role
const (
	ErrOnlyTeachersCanAccess = "❌ Hanya teacher, admin, atau owner yang boleh mengakses fitur %s."
	ErrOnlyAdminsCanAccess   = "❌ Hanya admin yang boleh mengakses fitur %s."
)

func RoleErrorTeacher(feature string) string {
	return fmt.Sprintf(ErrOnlyTeachersCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	// urutan = prioritas saat memilih role aktif
	RolePriority = []string{
		RoleOwner,
		RoleAdmin,
		RoleDKM,
		RoleTeacher,
		RoleStudent,
		RoleUser,
	}

	// boleh masuk grup /api/a
	SchoolStaffRoles = []string{
		RoleOwner,
		RoleAdmin,
		RoleDKM,
		RoleTeacher,
	}

	AdminAndAbove = []string{
		RoleOwner,
		RoleAdmin,
		RoleDKM,
	}
)
