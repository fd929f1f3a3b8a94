/**
 * @description
 * Builders that transform a simplified transaction request into the two
 * chained ISO 20022 documents forwarded upstream. The pacs.008 seeds the
 * accounts and entities in the pipeline; the pacs.002 that follows carries
 * the same EndToEndId and triggers the actual evaluation.
 *
 * Both builders are deterministic given their inputs apart from generated
 * identifiers and the current timestamp. Tenant routing deliberately never
 * appears in a document body; the upstream schema rejects it there, so it
 * travels in the x-tenant-id header instead.
 *
 * @dependencies
 * - time: Standard Go library.
 * - github.com/google/uuid: Identifier generation.
 */

package iso20022

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/walinzi/tps-gateway/internal/domain"
)

// timestampLayout matches the upstream's expected millisecond-UTC format.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func nowUTC() string {
	return time.Now().UTC().Format(timestampLayout)
}

func memberAgent(member string) Agent {
	return Agent{FinInstnID: ClearingSystemMemberID{ClrSysMmbID: MemberID{MmbID: member}}}
}

// syntheticParty fabricates the identity stanza the upstream validator
// requires on credit transfers. The gateway has no real customer identity
// to offer, so the shape is fixed and the identifiers are generated.
func syntheticParty(name string) Party {
	return Party{
		Nm: name,
		ID: PartyID{
			PrvtID: PrivateID{
				DtAndPlcOfBirth: DateAndPlaceOfBirth{
					BirthDt:     "1970-01-01",
					CityOfBirth: "Unknown",
					CtryOfBirth: "ZZ",
				},
				Othr: []OtherID{{
					ID:      newID(),
					SchmeNm: SchemeName{Prtry: "ENTITY_IDENTIFICATION"},
				}},
			},
		},
		CtctDtls: ContactDetails{MobNb: "+00-000-000000"},
	}
}

func syntheticAccount(name string) Account {
	return Account{
		ID: AccountID{Othr: []OtherID{{
			ID:      newID(),
			SchmeNm: SchemeName{Prtry: "ACCOUNT_IDENTIFICATION"},
		}}},
		Nm: name,
	}
}

// BuildCreditTransfer produces the pacs.008 document for a submission.
// endToEndID is generated once per submission by the orchestrator and shared
// with the pacs.002 built afterwards.
func BuildCreditTransfer(req domain.SimpleTransactionRequest, endToEndID string) Pacs008Document {
	now := nowUTC()
	amount := Amount{Amt: req.Amount, Ccy: req.Currency}

	return Pacs008Document{
		TxTp: MsgTypePacs008,
		FIToFICstmrCdtTrf: FIToFICustomerCreditTransfer{
			GrpHdr: GroupHeader{MsgID: newID(), CreDtTm: now},
			CdtTrfTxInf: CreditTransferTx{
				PmtID:          PaymentID{InstrID: newID(), EndToEndID: endToEndID},
				IntrBkSttlmAmt: CurrencyAmount{Amt: amount},
				InstdAmt:       CurrencyAmount{Amt: amount},
				ChrgBr:         "DEBT",
				ChrgsInf: ChargeInfo{
					Amt: Amount{Amt: 0, Ccy: req.Currency},
					Agt: memberAgent(req.DebtorMember),
				},
				InitgPty: syntheticParty("Debtor"),
				Dbtr:     syntheticParty("Debtor"),
				DbtrAcct: syntheticAccount("Debtor account"),
				DbtrAgt:  memberAgent(req.DebtorMember),
				CdtrAgt:  memberAgent(req.CreditorMember),
				Cdtr:     syntheticParty("Creditor"),
				CdtrAcct: syntheticAccount("Creditor account"),
				Purp:     Purpose{Cd: "MP2P"},
			},
			RgltryRptg: RegulatoryReporting{
				Dtls: RegulatoryDetails{Tp: "BALANCE OF PAYMENTS", Cd: "100"},
			},
			RmtInf: RemittanceInfo{Ustrd: ""},
		},
	}
}

// BuildPaymentStatus produces the pacs.002 document reporting on the credit
// transfer identified by endToEndID. The charges array always has exactly
// three entries, the real amount against the debtor plus two zero-amount
// placeholders. The upstream schema requires that shape.
func BuildPaymentStatus(req domain.SimpleTransactionRequest, endToEndID string) Pacs002Document {
	now := nowUTC()

	return Pacs002Document{
		TxTp: MsgTypePacs002,
		FIToFIPmtSts: FIToFIPaymentStatus{
			GrpHdr: GroupHeader{MsgID: newID(), CreDtTm: now},
			TxInfAndSts: TransactionStatus{
				OrgnlInstrID:    newID(),
				OrgnlEndToEndID: endToEndID,
				TxSts:           req.Status,
				ChrgsInf: []ChargeInfo{
					{Amt: Amount{Amt: req.Amount, Ccy: req.Currency}, Agt: memberAgent(req.DebtorMember)},
					{Amt: Amount{Amt: 0, Ccy: req.Currency}, Agt: memberAgent(req.DebtorMember)},
					{Amt: Amount{Amt: 0, Ccy: req.Currency}, Agt: memberAgent(req.CreditorMember)},
				},
				AccptncDtTm: now,
				InstgAgt:    memberAgent(req.DebtorMember),
				InstdAgt:    memberAgent(req.CreditorMember),
			},
		},
	}
}

// NewEndToEndID generates the correlation identifier shared by the two
// documents of one submission.
func NewEndToEndID() string {
	return newID()
}
