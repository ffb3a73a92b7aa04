package models

type OperationType string

const (
	OperationCreateStock            OperationType = "CreateStock"
	OperationUpdateStock            OperationType = "UpdateStock"
	OperationDeleteStock            OperationType = "DeleteStock"
	OperationAddStockQuantity       OperationType = "AddStockQuantity"
	OperationSubtractStockQuantity  OperationType = "SubtractStockQuantity"
	OperationAddDefectiveGoods      OperationType = "AddDefectiveGoods"
	OperationSubtractDefectiveGoods OperationType = "SubtractDefectiveGoods"
	OperationPushToProduction       OperationType = "PushToProduction"
	OperationUndoProduction         OperationType = "UndoProduction"
	OperationSaveOpeningStock       OperationType = "SaveOpeningStock"
	OperationSaveClosingStock       OperationType = "SaveClosingStock"
	OperationCreateProduct          OperationType = "CreateProduct"
	OperationUpdateProduct          OperationType = "UpdateProduct"
	OperationDeleteProduct          OperationType = "DeleteProduct"
	OperationAlterProduct           OperationType = "AlterProductComponents"
)

type PushStatus string

const (
	PushStatusActive PushStatus = "ACTIVE"
	PushStatusUndone PushStatus = "UNDONE"
)

type UndoStatus string

const (
	UndoStatusActive UndoStatus = "ACTIVE"
	UndoStatusUndone UndoStatus = "UNDONE"
	UndoStatusDone   UndoStatus = "DONE"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// UnknownGroup is the nesting tier used when an item has no resolvable group
// or subgroup.
const UnknownGroup = "Unknown"

// UngroupedName collects grid rows for items without a resolved group.
const UngroupedName = "Ungrouped"
