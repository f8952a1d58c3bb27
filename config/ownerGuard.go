package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/recipe_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ownerColumn = "user_id"

// OwnerGuardPlugin scopes queries/updates/deletes to the request's user_id
// when the model has a user_id column.
//
// NOTE:
// - This does NOT apply to Raw SQL queries. Those must include user_id manually.
// - Operator bypass is explicit via appctx.ContextKeySkipOwnerScope.
type OwnerGuardPlugin struct{}

func NewOwnerGuardPlugin() *OwnerGuardPlugin { return &OwnerGuardPlugin{} }

func (p *OwnerGuardPlugin) Name() string { return "owner_guard" }

func (p *OwnerGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("owner_guard:query", ownerGuardCallback); err != nil {
		return err
	}
	// Row (First/Take)
	if err := db.Callback().Row().Before("gorm:row").Register("owner_guard:row", ownerGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("owner_guard:update", ownerGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("owner_guard:delete", ownerGuardCallback); err != nil {
		return err
	}
	return nil
}

func ownerGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if shouldBypassOwnerScope(ctx) {
		return
	}
	userID := userIdFromContext(ctx)
	if userID == "" {
		return
	}

	if db.Statement.Schema == nil || db.Statement.Schema.LookUpField(ownerColumn) == nil {
		return
	}

	// Don't duplicate an explicit owner filter.
	if whereHasOwner(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: ownerColumn},
				Value:  userID,
			},
		},
	})
}

func userIdFromContext(ctx context.Context) string {
	if v, ok := appctx.GetString(ctx, appctx.ContextKeyUserId); ok {
		return v
	}
	return ""
}

func shouldBypassOwnerScope(ctx context.Context) bool {
	v, ok := appctx.GetBool(ctx, appctx.ContextKeySkipOwnerScope)
	return ok && v
}

func whereHasOwner(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasOwner(e) {
			return true
		}
	}
	return false
}

func exprHasOwner(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsOwner(v.Column)
	case clause.Neq:
		return colIsOwner(v.Column)
	case clause.IN:
		return colIsOwner(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasOwner(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasOwner(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		// Best-effort for raw expressions.
		return strings.Contains(strings.ToLower(v.SQL), ownerColumn)
	default:
		return false
	}
}

func colIsOwner(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, ownerColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, ownerColumn)
	default:
		return false
	}
}
