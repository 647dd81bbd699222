package store

import (
	"fmt"
	"strings"
	"time"

	"agency-crm-backend/pkg/models"

	"github.com/google/uuid"
)

// SeedSummary 单个组织的示例数据生成结果
type SeedSummary struct {
	AddedClients    int `json:"addedClients"`
	AddedActivities int `json:"addedActivities"`
	UpdatedClients  int `json:"updatedClients"`
}

type sampleClient struct {
	name  string
	state models.ClientState
}

// 示例客户覆盖各健康等级：高频互动、At Risk边界、不规律接触、
// 已流失、新客户和未来已排期活动
var sampleClients = []sampleClient{
	{"BrightCo", models.ClientActive},
	{"Nova Retail", models.ClientActive},
	{"OldTown LLC", models.ClientActive},
	{"Churned Corp", models.ClientChurned},
	{"QuickStart", models.ClientActive},
	{"Holiday Homes", models.ClientActive},
}

// EnsureSampleForOrg 确保组织内存在讲述完整故事的示例客户和活动。
// 已存在的同名客户被标记为demo并补齐活动，缺失的客户在组织客户数
// 少于8时创建。幂等：重复调用不产生重复数据。
func EnsureSampleForOrg(s StoreInterface, orgID string, now time.Time) (SeedSummary, error) {
	summary := SeedSummary{}

	existing, err := s.ListClientsByOrganization(orgID)
	if err != nil {
		return summary, err
	}

	// 选择组织内用户分配客户归属（manager优先，其次staff）
	orgUsers, err := s.ListUsersByOrganization(orgID)
	if err != nil {
		return summary, err
	}
	var assignPool []string
	for _, u := range orgUsers {
		if u.Role == models.RoleManager {
			assignPool = append(assignPool, u.Email)
		}
	}
	for _, u := range orgUsers {
		if u.Role == models.RoleStaff {
			assignPool = append(assignPool, u.Email)
		}
	}
	if len(assignPool) == 0 {
		for _, u := range orgUsers {
			assignPool = append(assignPool, u.Email)
		}
	}
	if len(assignPool) == 0 {
		assignPool = []string{"alice@agency.test"}
	}

	created := 0
	for i, sample := range sampleClients {
		userID := assignPool[i%len(assignPool)]

		var clientID string
		found := findClientByName(existing, sample.name)
		if found != nil {
			clientID = found.ID
			if !found.Demo {
				found.Demo = true
				if err := s.UpdateClient(found); err != nil {
					return summary, err
				}
				summary.UpdatedClients++
			}
		} else {
			if len(existing)+created >= 8 {
				continue
			}
			client := &models.Client{
				ID:             fmt.Sprintf("sample-%s-%d", orgID, i+1),
				Name:           sample.name,
				Email:          fmt.Sprintf("%s@example.com", strings.ToLower(strings.ReplaceAll(sample.name, " ", ""))),
				ClientState:    sample.state,
				CreatedAt:      now,
				UserID:         userID,
				OrganizationID: orgID,
				Demo:           true,
			}
			if err := s.CreateClient(client); err != nil {
				return summary, err
			}
			created++
			summary.AddedClients++
			clientID = client.ID
		}

		acts, err := s.ListActivitiesByClient(clientID)
		if err != nil {
			return summary, err
		}

		added, err := ensureStoryActivities(s, sample.name, clientID, userID, orgID, acts, now)
		if err != nil {
			return summary, err
		}
		summary.AddedActivities += added
	}

	return summary, nil
}

// ensureStoryActivities 为每个示例客户补齐讲述其健康故事的活动
func ensureStoryActivities(s StoreInterface, name, clientID, userID, orgID string, acts []models.Activity, now time.Time) (int, error) {
	added := 0

	newActivity := func(typ, description string, date time.Time, status models.ActivityStatus) *models.Activity {
		return &models.Activity{
			ID:             uuid.New().String(),
			Type:           typ,
			Description:    description,
			Date:           date,
			ClientID:       clientID,
			UserID:         userID,
			OrganizationID: orgID,
			CreatedAt:      now,
			ActivityStatus: status,
		}
	}

	switch name {
	case "BrightCo":
		// 至少5次近期互动，每3天一次
		if len(acts) < 5 {
			for d := 12; d >= 0; d -= 3 {
				typ := models.ActivityMeeting
				if d%2 != 0 {
					typ = models.ActivityCall
				}
				act := newActivity(typ, name+" touchpoint", now.AddDate(0, 0, -d), models.ActivityCompleted)
				if err := s.CreateActivity(act); err != nil {
					return added, err
				}
				added++
			}
		}

	case "Nova Retail":
		// 约21天前的活动，使其落在At Risk区间
		target := now.AddDate(0, 0, -21)
		has21 := false
		for _, a := range acts {
			if absDuration(a.Date.Sub(target)) < 3*24*time.Hour {
				has21 = true
				break
			}
		}
		if !has21 {
			act := newActivity(models.ActivityCall, "Follow-up", target, models.ActivityCompleted)
			if err := s.CreateActivity(act); err != nil {
				return added, err
			}
			added++
		}

	case "OldTown LLC":
		// 不规律模式：一次很久以前的接触加一次近期接触
		hasOld, hasRecent := false, false
		for _, a := range acts {
			age := now.Sub(a.Date)
			if age > 120*24*time.Hour {
				hasOld = true
			}
			if age < 30*24*time.Hour {
				hasRecent = true
			}
		}
		if !hasOld {
			act := newActivity(models.ActivityCall, "Old touch", now.AddDate(0, -8, 0), models.ActivityCompleted)
			if err := s.CreateActivity(act); err != nil {
				return added, err
			}
			added++
		}
		if !hasRecent {
			act := newActivity(models.ActivityCall, "Ad-hoc support (irregular)", now.AddDate(0, 0, -16), models.ActivityCompleted)
			if err := s.CreateActivity(act); err != nil {
				return added, err
			}
			added++
		}

	case "Churned Corp":
		// 只有一次久远的账户检查
		if len(acts) == 0 {
			act := newActivity(models.ActivityCall, "Last account check", mustTime("2024-04-02T09:00:00Z"), models.ActivityCompleted)
			if err := s.CreateActivity(act); err != nil {
				return added, err
			}
			added++
		}

	case "Holiday Homes":
		// 未来已排期的会议
		hasFuture := false
		for _, a := range acts {
			if a.Date.After(now) && a.ActivityStatus == models.ActivityScheduled {
				hasFuture = true
				break
			}
		}
		if !hasFuture {
			act := newActivity(models.ActivityMeeting, "Site visit", now.AddDate(0, 0, 7), models.ActivityScheduled)
			if err := s.CreateActivity(act); err != nil {
				return added, err
			}
			added++
		}

	default:
		if len(acts) == 0 {
			act := newActivity(models.ActivityCall, "Touch", now.AddDate(0, 0, -5), models.ActivityCompleted)
			if err := s.CreateActivity(act); err != nil {
				return added, err
			}
			added++
		}
	}

	return added, nil
}

// SeedAllOrgs 为所有组织生成示例数据
func SeedAllOrgs(s StoreInterface, now time.Time) (map[string]SeedSummary, error) {
	orgIDs, err := s.ListOrganizationIDs()
	if err != nil {
		return nil, err
	}

	summary := map[string]SeedSummary{}
	for _, orgID := range orgIDs {
		res, err := EnsureSampleForOrg(s, orgID, now)
		if err != nil {
			return summary, err
		}
		summary[orgID] = res
	}
	return summary, nil
}

func findClientByName(clients []models.Client, name string) *models.Client {
	for i := range clients {
		if strings.EqualFold(clients[i].Name, name) {
			return &clients[i]
		}
	}
	return nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
