package auth

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type ServiceSuite struct {
	suite.Suite
	token   string
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	token, err := GenerateToken()
	s.Require().NoError(err)
	hash, err := HashToken(token, bcrypt.MinCost)
	s.Require().NoError(err)

	s.token = token
	s.service, err = New(hash)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestVerifyAcceptsConfiguredToken() {
	s.True(s.service.Enabled())
	s.NoError(s.service.Verify(s.token))
}

func (s *ServiceSuite) TestVerifyRejectsWrongToken() {
	s.ErrorIs(s.service.Verify(s.token+"x"), ErrInvalidCredentials)
}

func (s *ServiceSuite) TestVerifyRejectsEmptyToken() {
	s.ErrorIs(s.service.Verify(""), ErrInvalidCredentials)
}

func (s *ServiceSuite) TestEmptyHashDisablesAdmin() {
	svc, err := New("")
	s.Require().NoError(err)
	s.False(svc.Enabled())
	s.ErrorIs(svc.Verify(s.token), ErrAdminDisabled)
}

func (s *ServiceSuite) TestNewRejectsMalformedHash() {
	_, err := New("not-a-bcrypt-hash")
	s.Error(err)
}

func (s *ServiceSuite) TestGeneratedTokensDiffer() {
	other, err := GenerateToken()
	s.Require().NoError(err)
	s.NotEqual(s.token, other)
	s.Len(other, 32)
}

func (s *ServiceSuite) TestHashTokenRejectsEmpty() {
	_, err := HashToken("", bcrypt.MinCost)
	s.ErrorIs(err, ErrInvalidCredentials)
}
