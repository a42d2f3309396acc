package inventory

import (
	"strconv"

	"stokpanel-backend/internal/auth"
	"stokpanel-backend/internal/database"
	"stokpanel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func getUserInfo(c *fiber.Ctx) (uint, string, *uint, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", nil, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	var branchID *uint
	bVal := c.Locals(auth.CtxBranchIDKey)
	if bPtr, ok := bVal.(*uint); ok && bPtr != nil {
		branchID = bPtr
	}

	return userID, user.Name, branchID, nil
}

// resolveBranchIDFromBodyOrRole: Branch admin kendi şubesini kullanır,
// super admin body'de branch_id göndermek zorundadır.
func resolveBranchIDFromBodyOrRole(c *fiber.Ctx, bodyBranchID *uint) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role == models.RoleBranchAdmin {
		bVal := c.Locals(auth.CtxBranchIDKey)
		if bPtr, ok := bVal.(*uint); ok && bPtr != nil {
			return *bPtr, nil
		}
		return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi alınamadı")
	}

	if bodyBranchID == nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Super admin için branch_id gerekli")
	}
	return *bodyBranchID, nil
}

// resolveBranchIDFromQueryOrRole: Listeleme endpoint'leri için şube çözümleme.
// Super admin query'de branch_id göndermezse tüm şubeler döner (0).
func resolveBranchIDFromQueryOrRole(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(auth.CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role == models.RoleBranchAdmin {
		bVal := c.Locals(auth.CtxBranchIDKey)
		if bPtr, ok := bVal.(*uint); ok && bPtr != nil {
			return *bPtr, nil
		}
		return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi alınamadı")
	}

	branchIDStr := c.Query("branch_id")
	if branchIDStr == "" {
		return 0, nil
	}
	branchID, err := strconv.ParseUint(branchIDStr, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz branch_id")
	}
	return uint(branchID), nil
}
