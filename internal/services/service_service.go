package services

import (
	"context"
	"fmt"

	"hirelyBack/internal/models"
	"hirelyBack/internal/repositories"
)

type ServiceService struct {
	ServiceRepo *repositories.ServiceRepository
}

func (s *ServiceService) CreateService(ctx context.Context, svc models.Service) (models.Service, error) {
	if svc.ServiceName == "" {
		return models.Service{}, fmt.Errorf("%w: service_name is required", models.ErrInvalidRequest)
	}
	if svc.PricePerHour <= 0 {
		return models.Service{}, fmt.Errorf("%w: price_per_hour must be positive", models.ErrInvalidRequest)
	}
	return s.ServiceRepo.CreateService(ctx, svc)
}

func (s *ServiceService) GetServiceByID(ctx context.Context, id int) (models.Service, error) {
	return s.ServiceRepo.GetServiceByID(ctx, id)
}

func (s *ServiceService) GetServicesByProvider(ctx context.Context, providerID int) ([]models.Service, error) {
	return s.ServiceRepo.GetServicesByProvider(ctx, providerID)
}
