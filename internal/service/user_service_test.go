package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserServiceTest(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:user_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.CommissionLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingSvc := NewSettingService(newMockSettingRepo())
	svc := NewUserService(
		repository.NewUserRepository(db),
		repository.NewCommissionRepository(db),
		settingSvc,
		nil,
	)
	return svc, db
}

func createUserTestUser(t *testing.T, db *gorm.DB, phone string, roleLevel int) models.User {
	t.Helper()

	row := models.User{
		Phone:     phone,
		Status:    constants.UserStatusActive,
		RoleLevel: roleLevel,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return row
}

func TestRegisterCreatesGuestAndBindsInviter(t *testing.T) {
	svc, db := setupUserServiceTest(t)

	inviter := createUserTestUser(t, db, "13400000001", constants.RoleMember)
	user, err := svc.Register("13400000002", "新用户", inviter.ID)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.RoleLevel != constants.RoleGuest {
		t.Fatalf("new user should start as guest, got %d", user.RoleLevel)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.ParentID == nil || *reloaded.ParentID != inviter.ID {
		t.Fatalf("expected parent %d, got %+v", inviter.ID, reloaded.ParentID)
	}
	if reloaded.ParentBoundAt == nil {
		t.Fatalf("expected parent_bound_at set")
	}

	var reloadedInviter models.User
	if err := db.First(&reloadedInviter, inviter.ID).Error; err != nil {
		t.Fatalf("reload inviter failed: %v", err)
	}
	if reloadedInviter.RefereeCount != 1 {
		t.Fatalf("inviter referee count want 1 got %d", reloadedInviter.RefereeCount)
	}

	// 手机号已注册时返回已有账号
	again, err := svc.Register("13400000002", "重复注册", 0)
	if err != nil {
		t.Fatalf("repeated register failed: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("expected existing user %d, got %d", user.ID, again.ID)
	}
}

func TestBindParentOnlyOnce(t *testing.T) {
	svc, db := setupUserServiceTest(t)

	first := createUserTestUser(t, db, "13400000003", constants.RoleMember)
	second := createUserTestUser(t, db, "13400000004", constants.RoleMember)
	user := createUserTestUser(t, db, "13400000005", constants.RoleGuest)

	if err := svc.BindParent(user.ID, first.ID); err != nil {
		t.Fatalf("bind parent failed: %v", err)
	}
	if err := svc.BindParent(user.ID, second.ID); !errors.Is(err, ErrParentAlreadyBound) {
		t.Fatalf("expected ErrParentAlreadyBound, got: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.ParentID == nil || *reloaded.ParentID != first.ID {
		t.Fatalf("first bound parent must win, got %+v", reloaded.ParentID)
	}
}

func TestBindParentRejectsSelfAndCycle(t *testing.T) {
	svc, db := setupUserServiceTest(t)

	a := createUserTestUser(t, db, "13400000006", constants.RoleMember)
	b := createUserTestUser(t, db, "13400000007", constants.RoleMember)

	if err := svc.BindParent(a.ID, a.ID); !errors.Is(err, ErrParentInvalid) {
		t.Fatalf("expected ErrParentInvalid for self bind, got: %v", err)
	}

	if err := svc.BindParent(a.ID, b.ID); err != nil {
		t.Fatalf("bind parent failed: %v", err)
	}
	// b 的上级若设为 a 会形成 a → b → a 环
	if err := svc.BindParent(b.ID, a.ID); !errors.Is(err, ErrParentInvalid) {
		t.Fatalf("expected ErrParentInvalid for cycle, got: %v", err)
	}
}

func TestBindParentTriggersLeaderUpgrade(t *testing.T) {
	svc, db := setupUserServiceTest(t)

	parent := createUserTestUser(t, db, "13400000008", constants.RoleMember)
	parent.RefereeCount = 1
	if err := db.Save(&parent).Error; err != nil {
		t.Fatalf("seed referee count failed: %v", err)
	}
	child := createUserTestUser(t, db, "13400000009", constants.RoleGuest)

	// 默认阈值：直推满 2 人升级团长
	if err := svc.BindParent(child.ID, parent.ID); err != nil {
		t.Fatalf("bind parent failed: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, parent.ID).Error; err != nil {
		t.Fatalf("reload parent failed: %v", err)
	}
	if reloaded.RefereeCount != 2 {
		t.Fatalf("referee count want 2 got %d", reloaded.RefereeCount)
	}
	if reloaded.RoleLevel != constants.RoleLeader {
		t.Fatalf("parent should upgrade to leader, got %d", reloaded.RoleLevel)
	}
}

func TestCheckRoleUpgradeLeaderToAgent(t *testing.T) {
	svc, db := setupUserServiceTest(t)

	leader := createUserTestUser(t, db, "13400000010", constants.RoleLeader)
	leader.OrderCount = 10
	if err := db.Save(&leader).Error; err != nil {
		t.Fatalf("seed order count failed: %v", err)
	}

	if err := svc.CheckRoleUpgrade(leader.ID); err != nil {
		t.Fatalf("check upgrade failed: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, leader.ID).Error; err != nil {
		t.Fatalf("reload leader failed: %v", err)
	}
	if reloaded.RoleLevel != constants.RoleAgent {
		t.Fatalf("leader with 10 orders should upgrade to agent, got %d", reloaded.RoleLevel)
	}

	// 未达阈值的会员不升级
	member := createUserTestUser(t, db, "13400000011", constants.RoleMember)
	if err := svc.CheckRoleUpgrade(member.ID); err != nil {
		t.Fatalf("check upgrade failed: %v", err)
	}
	var reloadedMember models.User
	if err := db.First(&reloadedMember, member.ID).Error; err != nil {
		t.Fatalf("reload member failed: %v", err)
	}
	if reloadedMember.RoleLevel != constants.RoleMember {
		t.Fatalf("member below threshold must stay member, got %d", reloadedMember.RoleLevel)
	}
}

func TestResolveUpline(t *testing.T) {
	svc, db := setupUserServiceTest(t)

	grandparent := createUserTestUser(t, db, "13400000012", constants.RoleAgent)
	parent := createUserTestUser(t, db, "13400000013", constants.RoleLeader)
	buyer := createUserTestUser(t, db, "13400000014", constants.RoleMember)
	if err := svc.BindParent(parent.ID, grandparent.ID); err != nil {
		t.Fatalf("bind grandparent failed: %v", err)
	}
	if err := svc.BindParent(buyer.ID, parent.ID); err != nil {
		t.Fatalf("bind parent failed: %v", err)
	}

	var loaded models.User
	if err := db.First(&loaded, buyer.ID).Error; err != nil {
		t.Fatalf("reload buyer failed: %v", err)
	}
	p, gp, err := svc.ResolveUpline(&loaded)
	if err != nil {
		t.Fatalf("resolve upline failed: %v", err)
	}
	if p == nil || p.ID != parent.ID {
		t.Fatalf("expected parent %d, got %+v", parent.ID, p)
	}
	if gp == nil || gp.ID != grandparent.ID {
		t.Fatalf("expected grandparent %d, got %+v", grandparent.ID, gp)
	}

	orphan := createUserTestUser(t, db, "13400000015", constants.RoleMember)
	p, gp, err = svc.ResolveUpline(&orphan)
	if err != nil {
		t.Fatalf("resolve upline failed: %v", err)
	}
	if p != nil || gp != nil {
		t.Fatalf("orphan should have no upline, got %+v %+v", p, gp)
	}
}

func TestGetDistributionStats(t *testing.T) {
	svc, db := setupUserServiceTest(t)

	leader := createUserTestUser(t, db, "13400000016", constants.RoleLeader)
	childA := createUserTestUser(t, db, "13400000017", constants.RoleMember)
	childB := createUserTestUser(t, db, "13400000018", constants.RoleMember)
	grandchild := createUserTestUser(t, db, "13400000019", constants.RoleGuest)
	if err := svc.BindParent(childA.ID, leader.ID); err != nil {
		t.Fatalf("bind childA failed: %v", err)
	}
	if err := svc.BindParent(childB.ID, leader.ID); err != nil {
		t.Fatalf("bind childB failed: %v", err)
	}
	if err := svc.BindParent(grandchild.ID, childA.ID); err != nil {
		t.Fatalf("bind grandchild failed: %v", err)
	}

	entries := []models.CommissionLog{
		{OrderID: 1, UserID: leader.ID, SourceUserID: childA.ID, CommissionType: constants.CommissionTypeDirect,
			Amount: mustMoney(t, "30.00"), Status: constants.CommissionStatusFrozen},
		{OrderID: 2, UserID: leader.ID, SourceUserID: childB.ID, CommissionType: constants.CommissionTypeDirect,
			Amount: mustMoney(t, "30.00"), Status: constants.CommissionStatusSettled},
	}
	if err := db.Create(&entries).Error; err != nil {
		t.Fatalf("create commission entries failed: %v", err)
	}

	stats, err := svc.GetDistributionStats(leader.ID)
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.DirectCount != 2 {
		t.Fatalf("direct count want 2 got %d", stats.DirectCount)
	}
	if stats.IndirectCount != 1 {
		t.Fatalf("indirect count want 1 got %d", stats.IndirectCount)
	}
	if stats.FrozenAmount.String() != "30.00" || stats.SettledAmount.String() != "30.00" {
		t.Fatalf("unexpected commission sums: %+v", stats)
	}
}
