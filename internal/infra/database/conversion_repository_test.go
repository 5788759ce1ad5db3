package database_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/galvinus/lead-conversion/internal/entity"
	"github.com/galvinus/lead-conversion/internal/infra/database"
)

func TestConvertCommitsStatusAndRecordTogether(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leads").
		WithArgs("CONVERTED", "L1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lead_conversions").
		WithArgs(sqlmock.AnyArg(), "L1", "A1", "C1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := database.NewConversionRepository(db)
	err = repo.Convert(context.Background(), "L1", "A1", "C1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertRejectsAlreadyConvertedLead(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leads").
		WithArgs("CONVERTED", "L1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("L1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	repo := database.NewConversionRepository(db)
	err = repo.Convert(context.Background(), "L1", "A1", "C1")

	assert.ErrorIs(t, err, entity.ErrLeadAlreadyConverted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertReportsMissingLead(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leads").
		WithArgs("CONVERTED", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	repo := database.NewConversionRepository(db)
	err = repo.Convert(context.Background(), "gone", "A1", "C1")

	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertRollsBackWhenInsertFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leads").
		WithArgs("CONVERTED", "L1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lead_conversions").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := database.NewConversionRepository(db)
	err = repo.Convert(context.Background(), "L1", "A1", "C1")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByLeadIDReturnsNilWhenAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, lead_id, account_id, contact_id, created_at").
		WithArgs("L1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "account_id", "contact_id", "created_at"}))

	repo := database.NewConversionRepository(db)
	conversion, err := repo.FindByLeadID(context.Background(), "L1")

	assert.NoError(t, err)
	assert.Nil(t, conversion)
}
