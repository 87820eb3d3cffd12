package services

import "github.com/huangang/gymdesk/internal/models"

// Session is the caller identity passed explicitly into every workflow.
type Session struct {
	UserID uint
	UID    string
	Email  string
	Role   string
}

// SystemSession is used by scheduled jobs. Its audit entries carry a nil uid.
func SystemSession() Session {
	return Session{Role: models.RoleAdmin}
}

func (s Session) IsAdmin() bool { return s.Role == models.RoleAdmin }

func (s Session) actor() *string {
	if s.UID == "" {
		return nil
	}
	uid := s.UID
	return &uid
}
