package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/session"
	"github.com/trezcool/gradeportal/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Debug: true})

	sess := session.Session{UserID: 2, Username: "tzhang", Role: user.RoleTeacher}
	logger.Error("saving grade", errors.New("boom"), sess)

	out := buf.String()
	assert.Contains(t, out, "saving grade\n")
	assert.Contains(t, out, "boom\n")
	assert.Contains(t, out, "user: tzhang (TEACHER)\n")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{}
	sess := session.Session{UserID: 2, Username: "tzhang"}

	args := logger.prepare("msg", []interface{}{"extra", sess, &sess})
	assert.Equal(t, []interface{}{"msg", "extra"}, args)
}
