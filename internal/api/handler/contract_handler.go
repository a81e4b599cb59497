package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// ContractHandler serves the contract endpoints.
type ContractHandler struct {
	service ports.ContractService
}

func NewContractHandler(service ports.ContractService) *ContractHandler {
	return &ContractHandler{service: service}
}

// Create handles POST /contracts. An omitted sales_contact_id inherits the
// client's sales contact.
//
// @Summary      Create a contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createContractRequest  true  "Contract"
// @Success      201   {object}  domain.Contract
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /contracts [post]
func (h *ContractHandler) Create(c echo.Context) error {
	var req createContractRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	status, err := domain.ParseContractStatus(req.Status)
	if err != nil {
		return err
	}

	contract, err := h.service.Create(c.Request().Context(), actor(c), ports.CreateContractInput{
		ClientID:       req.ClientID,
		SalesContactID: req.SalesContactID,
		Amount:         req.Amount,
		Status:         status,
		PaymentDue:     req.PaymentDue,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, contract)
}

// Update handles PUT /contracts/:id. The client of a contract cannot change.
//
// @Summary      Update a contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Contract ID"
// @Param        body  body      updateContractRequest  true  "Fields to change"
// @Success      200   {object}  domain.Contract
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /contracts/{id} [put]
func (h *ContractHandler) Update(c echo.Context) error {
	var req updateContractRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateContractInput{
		SalesContactID: req.SalesContactID,
		Amount:         req.Amount,
		PaymentDue:     req.PaymentDue,
	}
	if req.Status != nil {
		status, err := domain.ParseContractStatus(*req.Status)
		if err != nil {
			return err
		}
		in.Status = &status
	}

	contract, err := h.service.Update(c.Request().Context(), actor(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contract)
}

// Delete handles DELETE /contracts/:id.
//
// @Summary      Delete a contract
// @Tags         contracts
// @Security     BearerAuth
// @Param        id   path  string  true  "Contract ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /contracts/{id} [delete]
func (h *ContractHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /contracts/:id.
//
// @Summary      Retrieve a contract
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  domain.Contract
// @Failure      404  {object}  errorResponse
// @Router       /contracts/{id} [get]
func (h *ContractHandler) Get(c echo.Context) error {
	contract, err := h.service.Get(c.Request().Context(), actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contract)
}

// List handles GET /contracts.
//
// @Summary      List contracts
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        client_id  query     string  false  "Only contracts of this client"
// @Param        signed     query     bool    false  "Filter on signature state"
// @Success      200        {array}   domain.Contract
// @Failure      400        {object}  errorResponse
// @Router       /contracts [get]
func (h *ContractHandler) List(c echo.Context) error {
	var q ports.ContractQuery
	var signed *bool
	err := echo.QueryParamsBinder(c).
		String("client_id", &q.ClientID).
		CustomFunc("signed", func(values []string) []error {
			b, err := strconv.ParseBool(values[0])
			if err != nil {
				return []error{fmt.Errorf("signed must be true or false")}
			}
			signed = &b
			return nil
		}).
		BindError()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if signed != nil {
		q.Status = domain.ContractUnsigned
		if *signed {
			q.Status = domain.ContractSigned
		}
	}

	contracts, err := h.service.List(c.Request().Context(), actor(c), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contracts)
}
