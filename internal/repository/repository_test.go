package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestChatRepository_FindByIDForOwner(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewChatRepository(db)

		rows := sqlmock.NewRows([]string{"id", "title", "user_id", "created_at"}).
			AddRow("c1", nil, "u1", time.Now())
		mock.ExpectQuery("SELECT \\* FROM `chats` WHERE id = \\? AND user_id = \\?").WillReturnRows(rows)

		chat, err := repo.FindByIDForOwner(ctx, "c1", "u1")
		require.NoError(t, err)
		assert.Equal(t, "c1", chat.ID)
		assert.Nil(t, chat.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Other owner maps to not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewChatRepository(db)

		mock.ExpectQuery("SELECT \\* FROM `chats` WHERE id = \\? AND user_id = \\?").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByIDForOwner(ctx, "c1", "intruder")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChatRepository_AppendTurn(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	mock.ExpectExec("INSERT INTO `messages`").WillReturnResult(sqlmock.NewResult(7, 1))

	msg, err := repo.AppendTurn(ctx, "c1", model.RoleAssistant, "answer")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), msg.ID)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_AppendTurnRejectsSystemRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	_, err := repo.AppendTurn(context.Background(), "c1", model.RoleSystem, "x")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_ListTurnsOrdersByCreationThenInsertion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "chat_id", "role", "content", "created_at"}).
		AddRow(1, "c1", "user", "first", now).
		AddRow(2, "c1", "assistant", "second", now).
		AddRow(3, "c1", "user", "third", now.Add(time.Second))
	mock.ExpectQuery("SELECT \\* FROM `messages` WHERE chat_id = \\? ORDER BY created_at asc, id asc").
		WillReturnRows(rows)

	msgs, err := repo.ListTurns(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_SetTitle(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	mock.ExpectExec("UPDATE `chats` SET `title`=\\? WHERE id = \\?").
		WithArgs("Resume review", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetTitle(context.Background(), "c1", "Resume review"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_CreateWithOpeningTurn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chats`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `messages`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	chat := &model.Chat{ID: "c1", UserID: "u1"}
	require.NoError(t, repo.Create(context.Background(), chat, "Hello, can you review my resume?"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResumeRepository_SetParsedContentMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResumeRepository(db)

	mock.ExpectExec("UPDATE `resumes` SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetParsedContent(context.Background(), "r1", "text")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResumeRepository_FindByIDForOwnerNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResumeRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `resumes` WHERE id = \\? AND user_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByIDForOwner(context.Background(), "r1", "u2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
