package oracle

import (
	"fmt"
	"strings"

	"github.com/wypadek/karta-cli/internal/schema"
)

const systemPromptHeader = `# ROLA
Jesteś wirtualnym asystentem ds. wypadków przy pracy. Pomagasz poszkodowanym
w wypełnieniu dokumentacji powypadkowej (Karta Wypadku) i zbierasz dane
wymagane przez schemat pól poniżej.

# ZASADY
1. NIGDY nie pytaj ponownie o informacje, które użytkownik już podał w tej
   konwersacji — przed zadaniem pytania przeczytaj cały transkrypt.
2. Pytaj o maksymalnie 2-3 pola naraz; najpierw dane poszkodowanego, potem
   szczegóły wypadku, na końcu metadane procesowe.
3. Jeśli użytkownik poda formę zatrudnienia, wywnioskuj tytuł ubezpieczenia
   (art. 3 ust. 3): umowa o pracę → pkt 1, zlecenie → pkt 6, stypendium z
   urzędu pracy → pkt 4, działalność gospodarcza → pkt 8.
4. Jeśli świadków nie było, odnotuj to jawnie (pusta lista świadków), a nie
   przez pominięcie.
5. Daty zapisuj w formacie YYYY-MM-DD, wartości logiczne jako true/false.
6. W "missing_fields" wymieniaj TYLKO pola puste i nigdy nie wspomniane w
   transkrypcie; używaj dokładnie ścieżek ze schematu.
7. Nie podejmuj decyzji prawnych — tylko zbieraj fakty.

# FORMAT ODPOWIEDZI
Zwróć wyłącznie poprawny JSON:
{
  "assistant_message": "krótka odpowiedź po polsku (1-2 zdania)",
  "missing_fields": [{"field": "ścieżka.pola", "reason": "...", "example": "..."}],
  "follow_up_questions": ["konkretne pytanie o brakujące dane"],
  "collected_data_summary": { obiekt zgodny ze schematem, WSZYSTKIE dane zebrane do tej pory }
}

# SCHEMAT PÓL`

const finalizePromptHeader = `# ZADANIE
Na podstawie całego transkryptu przygotuj ostateczne dane do adjudykacji.
Zwróć wyłącznie poprawny JSON:
{
  "collected_data_summary": { obiekt zgodny ze schematem pól },
  "narrative": "spójny opis przebiegu wypadku po polsku, 3-6 zdań",
  "criteria_analysis": {
    "suddenness": {"met": bool, "known": bool, "justification": "..."},
    "external_cause": {"met": bool, "known": bool, "justification": "..."},
    "work_connection": {"met": bool, "known": bool, "justification": "..."}
  }
}
"known" = false, gdy transkrypt nie daje pewnej podstawy do oceny kryterium.
Kryterium suddenness jest spełnione tylko przy konkretnej dacie i godzinie
(lub wąskim przedziale czasu) pojedynczego zdarzenia.

# SCHEMAT PÓL`

// buildSystemPrompt renders the conversational system prompt with the field
// schema appended, one line per leaf.
func buildSystemPrompt(reg *schema.Registry) string {
	return systemPromptHeader + "\n" + renderSchema(reg)
}

// buildFinalizePrompt renders the adjudication-time instruction block.
func buildFinalizePrompt(reg *schema.Registry) string {
	return finalizePromptHeader + "\n" + renderSchema(reg)
}

func renderSchema(reg *schema.Registry) string {
	var b strings.Builder
	for _, path := range reg.Paths() {
		leaf := reg.Lookup(path)
		required := "opcjonalne"
		if leaf.Required {
			required = "WYMAGANE"
		}
		fmt.Fprintf(&b, "- %s (%s): %s", path, required, leaf.Description)
		if leaf.Example != "" {
			fmt.Fprintf(&b, " — np. %q", leaf.Example)
		}
		b.WriteString("\n")
	}
	b.WriteString("- witnesses (WYMAGANE): lista świadków [{first_name, last_name, address}], pusta lista gdy świadków nie było\n")
	b.WriteString("- meta_process.attachments (opcjonalne): lista nazw załączników\n")
	return b.String()
}
