package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// status maps a wire status onto the kind's closed set. Values outside the
// set are kept verbatim so callers see them instead of a guessed substitute;
// the guard offers no actions for them.
func status(kind workflow.Kind, raw string) workflow.Status {
	if s, err := workflow.ParseStatus(kind, raw); err == nil {
		return s
	}
	return workflow.Status(strings.TrimSpace(raw))
}

type actorWire struct {
	RequestedBy   idRef `json:"requested_by"`
	RecommendedBy idRef `json:"recommended_by"`
	ApprovedBy    idRef `json:"approved_by"`
	DisapprovedBy idRef `json:"disapproved_by"`
	RejectedBy    idRef `json:"rejected_by"`
}

func (a actorWire) refs() entity.ActorRefs {
	return entity.ActorRefs{
		RequestedBy:   int64(a.RequestedBy),
		RecommendedBy: int64(a.RecommendedBy),
		ApprovedBy:    int64(a.ApprovedBy),
		DisapprovedBy: firstNonZero(a.DisapprovedBy, a.RejectedBy),
	}
}

type userWire struct {
	ID         idRef   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       nameRef `json:"role"`
	EmployeeID idRef   `json:"employee_id"`
	Roles      []struct {
		Name string `json:"name"`
	} `json:"roles"`
}

func (w userWire) entity() entity.User {
	roleName := string(w.Role)
	if roleName == "" && len(w.Roles) > 0 {
		roleName = w.Roles[0].Name
	}
	role, err := workflow.ParseRole(roleName)
	if err != nil {
		role = workflow.RoleEmployee
	}
	return entity.User{ID: int64(w.ID), Name: w.Name, Email: w.Email, Role: role, EmployeeID: int64(w.EmployeeID)}
}

type employeeWire struct {
	ID             idRef    `json:"id"`
	EmployeeNumber string   `json:"employee_number"`
	EmployeeNo     string   `json:"employee_no"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Position       nameRef  `json:"position"`
	Status         string   `json:"employment_status"`
	AltStatus      string   `json:"status"`
	DateHired      wireTime `json:"date_hired"`
}

func (w employeeWire) entity() entity.Employee {
	return entity.Employee{
		ID:             int64(w.ID),
		EmployeeNumber: firstNonEmpty(w.EmployeeNumber, w.EmployeeNo),
		FirstName:      w.FirstName,
		LastName:       w.LastName,
		Position:       string(w.Position),
		Status:         firstNonEmpty(w.Status, w.AltStatus),
		DateHired:      w.DateHired.Time,
	}
}

type leaveWire struct {
	ID         idRef               `json:"id"`
	EmployeeID idRef               `json:"employee_id"`
	Employee   idRef               `json:"employee"`
	LeaveType  nameRef             `json:"leave_type"`
	StartDate  wireTime            `json:"start_date"`
	EndDate    wireTime            `json:"end_date"`
	Days       decimal.NullDecimal `json:"days"`
	DaysCount  decimal.NullDecimal `json:"number_of_days"`
	Reason     string              `json:"reason"`
	Status     string              `json:"status"`
	Remarks    string              `json:"remarks"`
	actorWire
}

func (w leaveWire) entity() entity.LeaveRequest {
	refs := w.refs()
	if refs.RequestedBy == 0 {
		refs.RequestedBy = firstNonZero(w.EmployeeID, w.Employee)
	}
	return entity.LeaveRequest{
		ID:         int64(w.ID),
		EmployeeID: firstNonZero(w.EmployeeID, w.Employee),
		LeaveType:  string(w.LeaveType),
		StartDate:  w.StartDate.Time,
		EndDate:    w.EndDate.Time,
		Days:       amount(w.Days, w.DaysCount),
		Reason:     w.Reason,
		Status:     status(workflow.KindLeaveRequest, w.Status),
		Remarks:    w.Remarks,
		ActorRefs:  refs,
	}
}

type prItemWire struct {
	Description   string              `json:"description"`
	ItemName      string              `json:"item_name"`
	Unit          string              `json:"unit"`
	UnitOfMeasure string              `json:"unit_of_measure"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	UnitCost      decimal.NullDecimal `json:"unit_cost"`
	UnitPrice     decimal.NullDecimal `json:"unit_price"`
}

type prWire struct {
	ID          idRef               `json:"id"`
	PRNumber    string              `json:"pr_number"`
	Purpose     string              `json:"purpose"`
	FundSource  nameRef             `json:"fund_source"`
	Source      nameRef             `json:"source"`
	TotalAmount decimal.NullDecimal `json:"total_amount"`
	Total       decimal.NullDecimal `json:"total"`
	Status      string              `json:"status"`
	Items       []prItemWire        `json:"items"`
	Remarks     string              `json:"remarks"`
	actorWire
}

func (w prWire) entity() entity.PurchaseRequest {
	items := make([]entity.PurchaseRequestItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, entity.PurchaseRequestItem{
			Description: firstNonEmpty(it.Description, it.ItemName),
			Unit:        firstNonEmpty(it.Unit, it.UnitOfMeasure),
			Quantity:    amount(it.Quantity),
			UnitCost:    amount(it.UnitCost, it.UnitPrice),
		})
	}
	total := amount(w.TotalAmount, w.Total)
	if !w.TotalAmount.Valid && !w.Total.Valid {
		for _, it := range items {
			total = total.Add(it.Total())
		}
	}
	return entity.PurchaseRequest{
		ID:          int64(w.ID),
		PRNumber:    w.PRNumber,
		Purpose:     w.Purpose,
		FundSource:  firstNonEmpty(string(w.FundSource), string(w.Source)),
		TotalAmount: total,
		Status:      status(workflow.KindPurchaseRequest, w.Status),
		Items:       items,
		Remarks:     w.Remarks,
		ActorRefs:   w.refs(),
	}
}

type quotationWire struct {
	ID                idRef               `json:"id"`
	PurchaseRequestID idRef               `json:"purchase_request_id"`
	Supplier          nameRef             `json:"supplier"`
	SupplierName      string              `json:"supplier_name"`
	TotalAmount       decimal.NullDecimal `json:"total_amount"`
	Amount            decimal.NullDecimal `json:"amount"`
	IsWinningQuote    bool                `json:"is_winning_quote"`
	SubmittedAt       wireTime            `json:"submitted_at"`
	CreatedAt         wireTime            `json:"created_at"`
}

func (w quotationWire) entity() entity.Quotation {
	submitted := w.SubmittedAt.Time
	if submitted.IsZero() {
		submitted = w.CreatedAt.Time
	}
	return entity.Quotation{
		ID:                int64(w.ID),
		PurchaseRequestID: int64(w.PurchaseRequestID),
		Supplier:          firstNonEmpty(string(w.Supplier), w.SupplierName),
		TotalAmount:       amount(w.TotalAmount, w.Amount),
		IsWinningQuote:    w.IsWinningQuote,
		SubmittedAt:       submitted,
	}
}

type poWire struct {
	ID                idRef               `json:"id"`
	PONumber          string              `json:"po_number"`
	PurchaseRequestID idRef               `json:"purchase_request_id"`
	Supplier          nameRef             `json:"supplier"`
	SupplierName      string              `json:"supplier_name"`
	TotalAmount       decimal.NullDecimal `json:"total_amount"`
	Amount            decimal.NullDecimal `json:"amount"`
	Status            string              `json:"status"`
	actorWire
}

func (w poWire) entity() entity.PurchaseOrder {
	return entity.PurchaseOrder{
		ID:                int64(w.ID),
		PONumber:          w.PONumber,
		PurchaseRequestID: int64(w.PurchaseRequestID),
		Supplier:          firstNonEmpty(string(w.Supplier), w.SupplierName),
		TotalAmount:       amount(w.TotalAmount, w.Amount),
		Status:            status(workflow.KindPurchaseOrder, w.Status),
		ActorRefs:         w.refs(),
	}
}

type deliveryWire struct {
	ID              idRef    `json:"id"`
	PurchaseOrderID idRef    `json:"purchase_order_id"`
	DeliveredAt     wireTime `json:"delivery_date"`
	Status          string   `json:"status"`
}

func (w deliveryWire) entity() entity.Delivery {
	st, err := workflow.ParseDeliveryStatus(w.Status)
	if err != nil {
		st = workflow.DeliveryStatus(strings.TrimSpace(w.Status))
	}
	return entity.Delivery{ID: int64(w.ID), PurchaseOrderID: int64(w.PurchaseOrderID), DeliveredAt: w.DeliveredAt.Time, Status: st}
}

type budgetWire struct {
	ID              idRef               `json:"id"`
	FundSource      nameRef             `json:"fund_source"`
	Source          nameRef             `json:"source"`
	FiscalYear      int                 `json:"fiscal_year"`
	Year            int                 `json:"year"`
	Allocated       decimal.NullDecimal `json:"allocated"`
	AllocatedAmount decimal.NullDecimal `json:"allocated_amount"`
	Spent           decimal.NullDecimal `json:"spent"`
	SpentAmount     decimal.NullDecimal `json:"spent_amount"`
	Utilized        decimal.NullDecimal `json:"utilized_amount"`
}

func (w budgetWire) entity() entity.BudgetAllocation {
	year := w.FiscalYear
	if year == 0 {
		year = w.Year
	}
	return entity.BudgetAllocation{
		ID:         int64(w.ID),
		FundSource: firstNonEmpty(string(w.FundSource), string(w.Source)),
		FiscalYear: year,
		Allocated:  amount(w.Allocated, w.AllocatedAmount),
		Spent:      amount(w.Spent, w.SpentAmount, w.Utilized),
	}
}

type disbursementWire struct {
	ID         idRef               `json:"id"`
	DVNumber   string              `json:"dv_number"`
	Payee      nameRef             `json:"payee"`
	FundSource nameRef             `json:"fund_source"`
	Source     nameRef             `json:"source"`
	Amount     decimal.NullDecimal `json:"amount"`
	NetAmount  decimal.NullDecimal `json:"net_amount"`
	Status     string              `json:"status"`
	actorWire
}

func (w disbursementWire) entity() entity.Disbursement {
	return entity.Disbursement{
		ID:         int64(w.ID),
		DVNumber:   w.DVNumber,
		Payee:      string(w.Payee),
		FundSource: firstNonEmpty(string(w.FundSource), string(w.Source)),
		Amount:     amount(w.Amount, w.NetAmount),
		Status:     status(workflow.KindDisbursement, w.Status),
		ActorRefs:  w.refs(),
	}
}

type cashAdvanceWire struct {
	ID               idRef               `json:"id"`
	CANumber         string              `json:"ca_number"`
	EmployeeID       idRef               `json:"employee_id"`
	Purpose          string              `json:"purpose"`
	Amount           decimal.NullDecimal `json:"amount"`
	LiquidatedAmount decimal.NullDecimal `json:"liquidated_amount"`
	DueDate          wireTime            `json:"due_date"`
	LiquidationDue   wireTime            `json:"liquidation_due_date"`
	Status           string              `json:"status"`
	actorWire
}

func (w cashAdvanceWire) entity() entity.CashAdvance {
	due := w.DueDate.Time
	if due.IsZero() {
		due = w.LiquidationDue.Time
	}
	return entity.CashAdvance{
		ID:               int64(w.ID),
		CANumber:         w.CANumber,
		EmployeeID:       int64(w.EmployeeID),
		Purpose:          w.Purpose,
		Amount:           amount(w.Amount),
		LiquidatedAmount: amount(w.LiquidatedAmount),
		DueDate:          due,
		Status:           status(workflow.KindCashAdvance, w.Status),
		ActorRefs:        w.refs(),
	}
}

type liquidationWire struct {
	ID            idRef               `json:"id"`
	CashAdvanceID idRef               `json:"cash_advance_id"`
	TotalExpenses decimal.NullDecimal `json:"total_expenses"`
	TotalAmount   decimal.NullDecimal `json:"total_amount"`
	Expenses      []struct {
		Description string              `json:"description"`
		Amount      decimal.NullDecimal `json:"amount"`
		ORNumber    string              `json:"or_number"`
	} `json:"expenses"`
	Status string `json:"status"`
	actorWire
}

func (w liquidationWire) entity() entity.Liquidation {
	expenses := make([]entity.LiquidationExpense, 0, len(w.Expenses))
	total := decimal.Zero
	for _, e := range w.Expenses {
		le := entity.LiquidationExpense{Description: e.Description, Amount: amount(e.Amount), ORNumber: e.ORNumber}
		total = total.Add(le.Amount)
		expenses = append(expenses, le)
	}
	if w.TotalExpenses.Valid || w.TotalAmount.Valid {
		total = amount(w.TotalExpenses, w.TotalAmount)
	}
	return entity.Liquidation{
		ID:            int64(w.ID),
		CashAdvanceID: int64(w.CashAdvanceID),
		TotalExpenses: total,
		Expenses:      expenses,
		Status:        status(workflow.KindLiquidation, w.Status),
		ActorRefs:     w.refs(),
	}
}

type inventoryItemWire struct {
	ID           idRef               `json:"id"`
	ItemCode     string              `json:"item_code"`
	Name         string              `json:"item_name"`
	AltName      string              `json:"name"`
	Unit         string              `json:"unit"`
	Quantity     decimal.NullDecimal `json:"quantity"`
	OnHand       decimal.NullDecimal `json:"quantity_on_hand"`
	ReorderLevel decimal.NullDecimal `json:"reorder_level"`
	UnitCost     decimal.NullDecimal `json:"unit_cost"`
}

func (w inventoryItemWire) entity() entity.InventoryItem {
	return entity.InventoryItem{
		ID:           int64(w.ID),
		ItemCode:     w.ItemCode,
		Name:         firstNonEmpty(w.Name, w.AltName),
		Unit:         w.Unit,
		Quantity:     amount(w.Quantity, w.OnHand),
		ReorderLevel: amount(w.ReorderLevel),
		UnitCost:     amount(w.UnitCost),
	}
}

type stockCardWire struct {
	ID              idRef               `json:"id"`
	InventoryItemID idRef               `json:"inventory_item_id"`
	Date            wireTime            `json:"date"`
	TransactionDate wireTime            `json:"transaction_date"`
	Reference       string              `json:"reference"`
	ReferenceNumber string              `json:"reference_number"`
	Receipt         decimal.NullDecimal `json:"quantity_in"`
	Issue           decimal.NullDecimal `json:"quantity_out"`
	Balance         decimal.NullDecimal `json:"balance"`
}

func (w stockCardWire) entity() entity.StockCard {
	date := w.Date.Time
	if date.IsZero() {
		date = w.TransactionDate.Time
	}
	return entity.StockCard{
		ID:              int64(w.ID),
		InventoryItemID: int64(w.InventoryItemID),
		Date:            date,
		Reference:       firstNonEmpty(w.Reference, w.ReferenceNumber),
		Receipt:         amount(w.Receipt),
		Issue:           amount(w.Issue),
		Balance:         amount(w.Balance),
	}
}

// decodeSubject decodes the updated entity returned by a transition endpoint.
// The entity may be the body itself or wrapped in {"data": ...}.
func decodeSubject(kind workflow.Kind, raw []byte) (workflow.Subject, error) {
	raw = unwrapData(raw)
	switch kind {
	case workflow.KindLeaveRequest:
		return decodeInto[leaveWire](raw, leaveWire.entity)
	case workflow.KindPurchaseRequest:
		return decodeInto[prWire](raw, prWire.entity)
	case workflow.KindPurchaseOrder:
		return decodeInto[poWire](raw, poWire.entity)
	case workflow.KindLiquidation:
		return decodeInto[liquidationWire](raw, liquidationWire.entity)
	case workflow.KindCashAdvance:
		return decodeInto[cashAdvanceWire](raw, cashAdvanceWire.entity)
	case workflow.KindDisbursement:
		return decodeInto[disbursementWire](raw, disbursementWire.entity)
	}
	return nil, fmt.Errorf("%w: %q", workflow.ErrUnknownKind, kind)
}

func decodeInto[W any, E workflow.Subject](raw []byte, conv func(W) E) (workflow.Subject, error) {
	var w W
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("api: decode %T: %w", w, err)
	}
	return conv(w), nil
}

// unwrapData strips a {"data": {...}} envelope when present.
func unwrapData(raw []byte) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && env.Data[0] == '{' {
		return env.Data
	}
	return raw
}
