package workflow

// edge pairs an action with the status it leads to.
type edge struct {
	action Action
	next   Status
}

// table is the closed status set of one kind with its outgoing edges.
// Statuses absent from edges are terminal.
type table struct {
	statuses []Status
	edges    map[Status][]edge
}

var tables = map[Kind]table{
	KindLeaveRequest: {
		statuses: []Status{StatusPending, StatusApproved, StatusDisapproved, StatusCancelled},
		edges: map[Status][]edge{
			StatusPending: {
				{ActionApprove, StatusApproved},
				{ActionReject, StatusDisapproved},
			},
		},
	},
	KindPurchaseRequest: {
		statuses: []Status{StatusDraft, StatusPending, StatusRecommended, StatusApproved, StatusDisapproved},
		edges: map[Status][]edge{
			StatusDraft: {
				{ActionSubmit, StatusPending},
			},
			StatusPending: {
				{ActionRecommend, StatusRecommended},
				{ActionDisapprove, StatusDisapproved},
			},
			StatusRecommended: {
				{ActionApprove, StatusApproved},
				{ActionDisapprove, StatusDisapproved},
			},
			// Soliciting quotations leaves the request approved.
			StatusApproved: {
				{ActionRequestQuotations, StatusApproved},
			},
		},
	},
	KindPurchaseOrder: {
		statuses: []Status{StatusDraft, StatusApproved, StatusSent, StatusDelivered, StatusCancelled},
		edges: map[Status][]edge{
			StatusDraft: {
				{ActionApprove, StatusApproved},
				{ActionCancel, StatusCancelled},
			},
			StatusApproved: {
				{ActionSend, StatusSent},
				{ActionCancel, StatusCancelled},
			},
			StatusSent: {
				{ActionDeliver, StatusDelivered},
			},
		},
	},
	KindLiquidation: {
		statuses: []Status{StatusPending, StatusVerified, StatusApproved, StatusDisapproved},
		edges: map[Status][]edge{
			StatusPending: {
				{ActionVerify, StatusVerified},
				{ActionDisapprove, StatusDisapproved},
			},
			StatusVerified: {
				{ActionApprove, StatusApproved},
				{ActionDisapprove, StatusDisapproved},
			},
		},
	},
	KindCashAdvance: {
		statuses: []Status{
			StatusPending, StatusApproved, StatusReleased,
			StatusPartiallyLiquidated, StatusFullyLiquidated, StatusOverdue,
		},
		edges: map[Status][]edge{
			StatusPending: {
				{ActionApprove, StatusApproved},
			},
			StatusApproved: {
				{ActionRelease, StatusReleased},
			},
			StatusReleased: {
				{ActionLiquidate, StatusPartiallyLiquidated},
				{ActionLiquidateFull, StatusFullyLiquidated},
				{ActionMarkOverdue, StatusOverdue},
			},
			StatusPartiallyLiquidated: {
				{ActionLiquidate, StatusPartiallyLiquidated},
				{ActionLiquidateFull, StatusFullyLiquidated},
				{ActionMarkOverdue, StatusOverdue},
			},
			StatusOverdue: {
				{ActionLiquidate, StatusPartiallyLiquidated},
				{ActionLiquidateFull, StatusFullyLiquidated},
			},
		},
	},
	KindDisbursement: {
		statuses: []Status{StatusDraft, StatusCertified, StatusApproved, StatusPaid},
		edges: map[Status][]edge{
			StatusDraft:     {{ActionCertify, StatusCertified}},
			StatusCertified: {{ActionApprove, StatusApproved}},
			StatusApproved:  {{ActionPay, StatusPaid}},
		},
	},
}

// actionRoles lists the roles besides admin allowed to issue each action.
var actionRoles = map[Action][]Role{
	ActionSubmit:            {RoleEmployee, RoleDepartmentHead, RoleSupplyOfficer},
	ActionRecommend:         {RoleDepartmentHead},
	ActionApprove:           {RoleSchoolHead},
	ActionDisapprove:        {RoleDepartmentHead, RoleSchoolHead},
	ActionReject:            {RoleDepartmentHead, RoleSchoolHead},
	ActionRequestQuotations: {RoleSupplyOfficer},
	ActionSend:              {RoleSupplyOfficer},
	ActionDeliver:           {RoleSupplyOfficer},
	ActionCancel:            {RoleSupplyOfficer},
	ActionCertify:           {RoleBookkeeper},
	ActionVerify:            {RoleBookkeeper},
	ActionLiquidate:         {RoleBookkeeper},
	ActionLiquidateFull:     {RoleBookkeeper},
	ActionMarkOverdue:       {RoleBookkeeper},
	ActionPay:               {RoleDisbursingOfficer},
	ActionRelease:           {RoleDisbursingOfficer},
}

// RoleMay reports whether role may issue action regardless of status.
func RoleMay(role Role, action Action) bool {
	if role == RoleAdmin {
		_, ok := actionRoles[action]
		return ok
	}
	for _, r := range actionRoles[action] {
		if r == role {
			return true
		}
	}
	return false
}
