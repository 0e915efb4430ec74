package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/caris2020/AssuranceProject/internal/cases/models"
	"github.com/caris2020/AssuranceProject/pkg/sentinel"
)

type CaseStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CaseStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCaseStoreSuite(t *testing.T) {
	suite.Run(t, new(CaseStoreSuite))
}

func (s *CaseStoreSuite) newCase(reference, creator string) *models.Case {
	return &models.Case{
		Reference: reference,
		Type:      models.TypeEnquete,
		Status:    models.StatusSousEnquete,
		CreatedBy: creator,
		CreatedAt: time.Now(),
	}
}

func (s *CaseStoreSuite) TestCreateAndLookups() {
	s.Run("assigns sequential ids", func() {
		first := s.newCase("AAAA000001", "alice")
		second := s.newCase("AAAA000002", "alice")
		s.Require().NoError(s.store.Create(s.ctx, first))
		s.Require().NoError(s.store.Create(s.ctx, second))
		s.Equal(int64(1), first.ID)
		s.Equal(int64(2), second.ID)
	})

	s.Run("finds by id and reference", func() {
		byID, err := s.store.FindByID(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal("AAAA000001", byID.Reference)

		byRef, err := s.store.FindByReference(s.ctx, "AAAA000002")
		s.Require().NoError(err)
		s.Equal(int64(2), byRef.ID)
	})

	s.Run("unknown lookups return ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, 99)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByReference(s.ctx, "ZZZZ999999")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CaseStoreSuite) TestReferenceUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, s.newCase("AAAA000001", "alice")))
	err := s.store.Create(s.ctx, s.newCase("AAAA000001", "bob"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *CaseStoreSuite) TestUpdateRebindsReferenceIndex() {
	c := s.newCase("AAAA000001", "alice")
	s.Require().NoError(s.store.Create(s.ctx, c))

	c.Status = models.StatusClos
	s.Require().NoError(s.store.Update(s.ctx, c))

	got, err := s.store.FindByReference(s.ctx, "AAAA000001")
	s.Require().NoError(err)
	s.Equal(models.StatusClos, got.Status)
}

func (s *CaseStoreSuite) TestDeleteFreesReference() {
	c := s.newCase("AAAA000001", "alice")
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.Require().NoError(s.store.Delete(s.ctx, c.ID))

	s.ErrorIs(s.store.Delete(s.ctx, c.ID), sentinel.ErrNotFound)
	s.NoError(s.store.Create(s.ctx, s.newCase("AAAA000001", "bob")))
}

func (s *CaseStoreSuite) TestListByCreator() {
	s.Require().NoError(s.store.Create(s.ctx, s.newCase("AAAA000001", "alice")))
	s.Require().NoError(s.store.Create(s.ctx, s.newCase("AAAA000002", "bob")))
	s.Require().NoError(s.store.Create(s.ctx, s.newCase("AAAA000003", "alice")))

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)

	mine, err := s.store.ListByCreator(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Less(mine[0].ID, mine[1].ID)
}
