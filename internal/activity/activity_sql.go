package activity

import (
	"context"

	"github.com/pot-code/learn-gateway/internal/infrastructure/driver"
)

// ActivitySQL journal stored in table lesson_activity
//
//   lesson_activity(id varchar(32) primary key, user_id varchar(64), course_id int,
//                   lesson_id int, kind varchar(16), created_at timestamp)
type ActivitySQL struct {
	Conn driver.SQLConn
}

var _ ActivityRepository = &ActivitySQL{}

// NewActivityRepository .
func NewActivityRepository(Conn driver.SQLConn) *ActivitySQL {
	return &ActivitySQL{
		Conn: Conn,
	}
}

// InsertActivity .
func (repo *ActivitySQL) InsertActivity(ctx context.Context, activity *Activity) error {
	_, err := repo.Conn.ExecContext(ctx, `
INSERT INTO lesson_activity
    (id, user_id, course_id, lesson_id, "kind", created_at)
VALUES
    ($1, $2, $3, $4, $5, $6)
	`, activity.ID, activity.UserID, activity.CourseID, activity.LessonID, string(activity.Kind), activity.CreatedAt)
	return err
}

// ListActivityByUser newest first
func (repo *ActivitySQL) ListActivityByUser(ctx context.Context, userID string, limit int) ([]*Activity, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT 
    la.id, la.course_id, la.lesson_id, la."kind", la.created_at
FROM
    lesson_activity la
WHERE
    la.user_id = $1
ORDER BY la.created_at DESC
LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Activity
	for rows.Next() {
		item := &Activity{UserID: userID}
		var kind string
		err := rows.Scan(&item.ID, &item.CourseID, &item.LessonID, &kind, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		item.Kind = Kind(kind)
		result = append(result, item)
	}
	return result, rows.Err()
}
