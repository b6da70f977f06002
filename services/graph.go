package services

import (
	"context"
	"errors"
	"strings"

	"github.com/branchbook/branchbook-api/models"
	"gorm.io/gorm"
)

// GraphService manages branches and the nodes and connections inside them.
// Every lookup is scoped by the caller's user id; a row owned by someone
// else is reported exactly like a missing one.
type GraphService struct {
	db *gorm.DB
}

func NewGraphService(db *gorm.DB) *GraphService {
	return &GraphService{db: db}
}

// NodeInput describes a node to create. An empty Role means RoleDefault.
type NodeInput struct {
	Name string
	X    float64
	Y    float64
	Role string
}

// NodePatch is a partial node update. When Version is set the write only
// applies if it is newer than the stored version.
type NodePatch struct {
	Name    *string
	X       *float64
	Y       *float64
	Role    *string
	Version *int64
}

var errBranchNotFound = notFound("Branch not found")

// MaxVersionStep bounds how far a client version may run ahead of the stored
// one, so a single write cannot push the counter to its limit.
const MaxVersionStep = 1000

func ownedBranch(tx *gorm.DB, userID, branchID uint) error {
	var branch models.Branch
	err := tx.Select("id").Where("id = ? AND user_id = ?", branchID, userID).First(&branch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errBranchNotFound
	}
	return err
}

// Branches

func (s *GraphService) ListBranches(ctx context.Context, userID uint) ([]models.Branch, error) {
	branches := []models.Branch{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&branches).Error; err != nil {
		return nil, storeFailure(err)
	}
	return branches, nil
}

func (s *GraphService) CreateBranch(ctx context.Context, userID uint, name string) (*models.Branch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validation("Name required")
	}

	branch := models.Branch{UserID: userID, Name: name}
	if err := s.db.WithContext(ctx).Create(&branch).Error; err != nil {
		return nil, storeFailure(err)
	}
	return &branch, nil
}

// DeleteBranch removes the branch with all of its connections and nodes.
func (s *GraphService) DeleteBranch(ctx context.Context, userID, branchID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownedBranch(tx, userID, branchID); err != nil {
			return err
		}
		if err := tx.Where("branch_id = ?", branchID).Delete(&models.Connection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("branch_id = ?", branchID).Delete(&models.Node{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Branch{}, branchID).Error
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// Nodes

func (s *GraphService) ListNodes(ctx context.Context, userID, branchID uint) ([]models.Node, error) {
	db := s.db.WithContext(ctx)
	if err := ownedBranch(db, userID, branchID); err != nil {
		return nil, classify(err)
	}

	nodes := []models.Node{}
	if err := db.Where("user_id = ? AND branch_id = ?", userID, branchID).Order("id asc").Find(&nodes).Error; err != nil {
		return nil, storeFailure(err)
	}
	return nodes, nil
}

func (s *GraphService) CreateNode(ctx context.Context, userID, branchID uint, in NodeInput) (*models.Node, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, validation("Name required")
	}
	if in.Role == "" {
		in.Role = models.RoleDefault
	}
	if !models.ValidRole(in.Role) {
		return nil, validation("Role must be root, link or default")
	}

	db := s.db.WithContext(ctx)
	if err := ownedBranch(db, userID, branchID); err != nil {
		return nil, classify(err)
	}

	node := models.Node{
		UserID:   userID,
		BranchID: branchID,
		Name:     in.Name,
		X:        in.X,
		Y:        in.Y,
		Role:     in.Role,
	}
	if err := db.Create(&node).Error; err != nil {
		return nil, storeFailure(err)
	}
	return &node, nil
}

// UpdateNode applies only the fields present in patch and returns the
// resulting node.
func (s *GraphService) UpdateNode(ctx context.Context, userID, branchID, nodeID uint, patch NodePatch) (*models.Node, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, validation("Name must not be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.X != nil {
		updates["x"] = *patch.X
	}
	if patch.Y != nil {
		updates["y"] = *patch.Y
	}
	if patch.Role != nil {
		if !models.ValidRole(*patch.Role) {
			return nil, validation("Role must be root, link or default")
		}
		updates["role"] = *patch.Role
	}
	if patch.Version != nil && *patch.Version < 1 {
		return nil, validation("Version must be positive")
	}

	var node models.Node
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Node{}).Where("id = ? AND branch_id = ? AND user_id = ?", nodeID, branchID, userID)
		if patch.Version != nil {
			q = q.Where("version < ? AND version >= ?", *patch.Version, *patch.Version-MaxVersionStep)
			updates["version"] = *patch.Version
		} else {
			updates["version"] = gorm.Expr("version + ?", 1)
		}

		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}

		err := tx.Where("id = ? AND branch_id = ? AND user_id = ?", nodeID, branchID, userID).First(&node).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Node not found")
		}
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			if patch.Version != nil && *patch.Version > node.Version+MaxVersionStep {
				return validation("Version too far ahead")
			}
			return &Error{Kind: ErrStaleVersion, Message: "Stale node version"}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return &node, nil
}

// DeleteNode removes the node and exactly those connections that have it as
// an endpoint.
func (s *GraphService) DeleteNode(ctx context.Context, userID, branchID, nodeID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var node models.Node
		err := tx.Select("id").Where("id = ? AND branch_id = ? AND user_id = ?", nodeID, branchID, userID).First(&node).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Node not found")
		}
		if err != nil {
			return err
		}

		if err := tx.Where("from_node_id = ? OR to_node_id = ?", nodeID, nodeID).Delete(&models.Connection{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Node{}, nodeID).Error
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// Connections

func (s *GraphService) ListConnections(ctx context.Context, userID, branchID uint) ([]models.Connection, error) {
	db := s.db.WithContext(ctx)
	if err := ownedBranch(db, userID, branchID); err != nil {
		return nil, classify(err)
	}

	connections := []models.Connection{}
	if err := db.Where("branch_id = ?", branchID).Order("id asc").Find(&connections).Error; err != nil {
		return nil, storeFailure(err)
	}
	return connections, nil
}

// CreateConnection links two distinct nodes that both belong to the caller's
// branch.
func (s *GraphService) CreateConnection(ctx context.Context, userID, branchID, from, to uint) (*models.Connection, error) {
	if from == 0 || to == 0 {
		return nil, validation("From and to required")
	}
	if from == to {
		return nil, validation("A node cannot connect to itself")
	}

	var connection models.Connection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownedBranch(tx, userID, branchID); err != nil {
			return err
		}

		var count int64
		err := tx.Model(&models.Node{}).
			Where("id IN (?, ?) AND branch_id = ? AND user_id = ?", from, to, branchID, userID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count != 2 {
			return validation("From and to must be nodes in this branch")
		}

		connection = models.Connection{BranchID: branchID, FromNodeID: from, ToNodeID: to}
		return tx.Create(&connection).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	return &connection, nil
}
