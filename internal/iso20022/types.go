/**
 * @description
 * This file defines typed models for the two ISO 20022 message bodies the
 * upstream evaluation service accepts: pacs.008.001.10 (FI-to-FI customer
 * credit transfer) and pacs.002.001.12 (payment status report). Field names
 * and nesting mirror the upstream JSON schema exactly, so the structs
 * marshal to the precise shape its validator expects.
 *
 * @dependencies
 * - encoding/json: Standard Go library (tags only).
 */

package iso20022

// Message type identifiers used both in the TxTp discriminator and in the
// upstream endpoint path.
const (
	MsgTypePacs008 = "pacs.008.001.10"
	MsgTypePacs002 = "pacs.002.001.12"
)

// Amount is a currency-qualified amount.
type Amount struct {
	Amt float64 `json:"Amt"`
	Ccy string  `json:"Ccy"`
}

// CurrencyAmount wraps Amount the way pacs.008 settlement fields expect.
type CurrencyAmount struct {
	Amt Amount `json:"Amt"`
}

// MemberID identifies a clearing-system member (a DFSP).
type MemberID struct {
	MmbID string `json:"MmbId"`
}

// ClearingSystemMemberID nests MemberID per the schema.
type ClearingSystemMemberID struct {
	ClrSysMmbID MemberID `json:"ClrSysMmbId"`
}

// Agent is a financial-institution identification block.
type Agent struct {
	FinInstnID ClearingSystemMemberID `json:"FinInstnId"`
}

// ChargeInfo is one entry of a ChrgsInf array.
type ChargeInfo struct {
	Amt Amount `json:"Amt"`
	Agt Agent  `json:"Agt"`
}

// SchemeName carries a proprietary identification scheme label.
type SchemeName struct {
	Prtry string `json:"Prtry"`
}

// OtherID is a generic identification entry under a scheme.
type OtherID struct {
	ID         string     `json:"Id"`
	SchmeNm    SchemeName `json:"SchmeNm"`
	Issr       string     `json:"Issr,omitempty"`
}

// DateAndPlaceOfBirth is part of the private-identification stanza.
type DateAndPlaceOfBirth struct {
	BirthDt     string `json:"BirthDt"`
	CityOfBirth string `json:"CityOfBirth"`
	CtryOfBirth string `json:"CtryOfBirth"`
}

// PrivateID identifies a natural person.
type PrivateID struct {
	DtAndPlcOfBirth DateAndPlaceOfBirth `json:"DtAndPlcOfBirth"`
	Othr            []OtherID           `json:"Othr"`
}

// PartyID wraps private identification.
type PartyID struct {
	PrvtID PrivateID `json:"PrvtId"`
}

// ContactDetails carries a mobile number for a party.
type ContactDetails struct {
	MobNb string `json:"MobNb"`
}

// Party is a debtor/creditor/initiating-party block.
type Party struct {
	Nm       string         `json:"Nm"`
	ID       PartyID        `json:"Id"`
	CtctDtls ContactDetails `json:"CtctDtls"`
}

// AccountID nests the account's Other identification list.
type AccountID struct {
	Othr []OtherID `json:"Othr"`
}

// Account is a debtor/creditor account block.
type Account struct {
	ID AccountID `json:"Id"`
	Nm string    `json:"Nm"`
}

// PaymentID links the transfer to the shared end-to-end identifier.
type PaymentID struct {
	InstrID    string `json:"InstrId"`
	EndToEndID string `json:"EndToEndId"`
}

// Purpose carries the payment purpose code.
type Purpose struct {
	Cd string `json:"Cd"`
}

// GroupHeader opens every message.
type GroupHeader struct {
	MsgID   string `json:"MsgId"`
	CreDtTm string `json:"CreDtTm"`
}

// CreditTransferTx is the pacs.008 transaction block.
type CreditTransferTx struct {
	PmtID          PaymentID      `json:"PmtId"`
	IntrBkSttlmAmt CurrencyAmount `json:"IntrBkSttlmAmt"`
	InstdAmt       CurrencyAmount `json:"InstdAmt"`
	ChrgBr         string         `json:"ChrgBr"`
	ChrgsInf       ChargeInfo     `json:"ChrgsInf"`
	InitgPty       Party          `json:"InitgPty"`
	Dbtr           Party          `json:"Dbtr"`
	DbtrAcct       Account        `json:"DbtrAcct"`
	DbtrAgt        Agent          `json:"DbtrAgt"`
	CdtrAgt        Agent          `json:"CdtrAgt"`
	Cdtr           Party          `json:"Cdtr"`
	CdtrAcct       Account        `json:"CdtrAcct"`
	Purp           Purpose        `json:"Purp"`
}

// RegulatoryDetails and RegulatoryReporting are fixed stanzas the upstream
// schema requires on credit transfers.
type RegulatoryDetails struct {
	Tp string `json:"Tp"`
	Cd string `json:"Cd"`
}

type RegulatoryReporting struct {
	Dtls RegulatoryDetails `json:"Dtls"`
}

// RemittanceInfo is the unstructured remittance field.
type RemittanceInfo struct {
	Ustrd string `json:"Ustrd"`
}

// FIToFICustomerCreditTransfer is the pacs.008 envelope.
type FIToFICustomerCreditTransfer struct {
	GrpHdr      GroupHeader         `json:"GrpHdr"`
	CdtTrfTxInf CreditTransferTx    `json:"CdtTrfTxInf"`
	RgltryRptg  RegulatoryReporting `json:"RgltryRptg"`
	RmtInf      RemittanceInfo      `json:"RmtInf"`
}

// Pacs008Document is the full credit-transfer message, TxTp discriminator
// included, exactly as the upstream endpoint consumes it.
type Pacs008Document struct {
	TxTp              string                       `json:"TxTp"`
	FIToFICstmrCdtTrf FIToFICustomerCreditTransfer `json:"FIToFICstmrCdtTrf"`
}

// TransactionStatus is the pacs.002 transaction block. OrgnlEndToEndId must
// match the EndToEndId of the pacs.008 it reports on.
type TransactionStatus struct {
	OrgnlInstrID    string       `json:"OrgnlInstrId"`
	OrgnlEndToEndID string       `json:"OrgnlEndToEndId"`
	TxSts           string       `json:"TxSts"`
	ChrgsInf        []ChargeInfo `json:"ChrgsInf"`
	AccptncDtTm     string       `json:"AccptncDtTm"`
	InstgAgt        Agent        `json:"InstgAgt"`
	InstdAgt        Agent        `json:"InstdAgt"`
}

// FIToFIPaymentStatus is the pacs.002 envelope.
type FIToFIPaymentStatus struct {
	GrpHdr      GroupHeader       `json:"GrpHdr"`
	TxInfAndSts TransactionStatus `json:"TxInfAndSts"`
}

// Pacs002Document is the full payment-status message.
type Pacs002Document struct {
	TxTp         string              `json:"TxTp"`
	FIToFIPmtSts FIToFIPaymentStatus `json:"FIToFIPmtSts"`
}

// MsgID returns the group-header message id of a payment-status document.
func (d *Pacs002Document) MsgID() string {
	return d.FIToFIPmtSts.GrpHdr.MsgID
}
